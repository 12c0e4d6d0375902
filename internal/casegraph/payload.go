package casegraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/detectivekit/casegraph/internal/vars"
)

// FlexInt is an integer field that tolerates the authoring tool's loose
// typing: JSON numbers, numeric strings, blanks, and junk all decode
// without error, falling back to 0 like the tool's own numeric parsing.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(vars.ParseNumber(s))
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int() int {
	return int(f)
}

// Reward is the common score/objective block shared by content nodes.
type Reward struct {
	Score                FlexInt  `json:"score,omitempty"`
	LearningObjectiveIDs []string `json:"learningObjectiveIds,omitempty"`
}

// NodeReward exposes the entry reward of content payloads. Promoted by
// embedding so the runtime can treat all content kinds uniformly.
func (rw Reward) NodeReward() (int, []string) {
	return rw.Score.Int(), rw.LearningObjectiveIDs
}

type StoryData struct {
	Reward
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

type SuspectData struct {
	Reward
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Portrait string `json:"portrait,omitempty"`
}

type EvidenceData struct {
	Reward
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type MessageData struct {
	Reward
	Sender string `json:"sender,omitempty"`
	Body   string `json:"body,omitempty"`
}

type MusicData struct {
	Reward
	Track string `json:"track,omitempty"`
	Loop  bool   `json:"loop,omitempty"`
}

type MediaData struct {
	Reward
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type NotificationData struct {
	Reward
	Text string `json:"text,omitempty"`
}

type Scene3DData struct {
	Reward
	SceneURL string `json:"sceneUrl,omitempty"`
}

// LogicGateData configures a conditional branch. LogicType "if"
// evaluates once; "while" re-evaluates on every tick until true.
type LogicGateData struct {
	LogicType string  `json:"logicType,omitempty"`
	Variable  string  `json:"variable"`
	Operator  string  `json:"operator"`
	Value     string  `json:"value"`
	Score     FlexInt `json:"score,omitempty"`
}

// SetterData mutates one variable. Operations other than "set" ignore
// the authored value.
type SetterData struct {
	Variable  string `json:"variable"`
	Operation string `json:"operation"`
	Value     string `json:"value,omitempty"`
}

type QuestionOption struct {
	ID        string `json:"optionId"`
	Text      string `json:"text,omitempty"`
	IsCorrect bool   `json:"isCorrect,omitempty"`
}

type QuestionData struct {
	Prompt               string           `json:"prompt,omitempty"`
	SelectionType        string           `json:"selectionType,omitempty"`
	Options              []QuestionOption `json:"options"`
	Score                FlexInt          `json:"score,omitempty"`
	Penalty              FlexInt          `json:"penalty,omitempty"`
	VariableID           string           `json:"variableId,omitempty"`
	LearningObjectiveIDs []string         `json:"learningObjectiveIds,omitempty"`
}

// TerminalData configures a command-terminal challenge. The penalty is
// applied on every failed attempt, matching the authoring tool's
// per-attempt "Risk" field. TimeLimit is in seconds; zero means none.
type TerminalData struct {
	TerminalType         string   `json:"terminalType,omitempty"`
	Prompt               string   `json:"prompt,omitempty"`
	SolvePassword        string   `json:"solvePassword,omitempty"`
	SolveFile            string   `json:"solveFile,omitempty"`
	Score                FlexInt  `json:"score,omitempty"`
	Penalty              FlexInt  `json:"penalty,omitempty"`
	VariableID           string   `json:"variableId,omitempty"`
	TimeLimit            FlexInt  `json:"timeLimit,omitempty"`
	LearningObjectiveIDs []string `json:"learningObjectiveIds,omitempty"`
}

// InterrogationData binds a suspect persona to a free-text dialogue.
// RevealVariable names the externally set flag that marks the suspect's
// secret as revealed; the score applies once when it turns true.
type InterrogationData struct {
	SuspectName    string  `json:"suspectName,omitempty"`
	Persona        string  `json:"persona,omitempty"`
	RevealVariable string  `json:"revealVariable,omitempty"`
	Score          FlexInt `json:"score,omitempty"`
}

type IdentifyCulpritData struct {
	Prompt               string   `json:"prompt,omitempty"`
	CulpritName          string   `json:"culpritName"`
	Score                FlexInt  `json:"score,omitempty"`
	Penalty              FlexInt  `json:"penalty,omitempty"`
	LearningObjectiveIDs []string `json:"learningObjectiveIds,omitempty"`
}

type GroupData struct {
	Label string `json:"label,omitempty"`
}

func decodePayload(kind Kind, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var payload any
	switch kind {
	case KindStory:
		payload = &StoryData{}
	case KindSuspect:
		payload = &SuspectData{}
	case KindEvidence:
		payload = &EvidenceData{}
	case KindMessage:
		payload = &MessageData{}
	case KindMusic:
		payload = &MusicData{}
	case KindMedia:
		payload = &MediaData{}
	case KindNotification:
		payload = &NotificationData{}
	case KindScene3D:
		payload = &Scene3DData{}
	case KindLogicGate:
		payload = &LogicGateData{}
	case KindSetter:
		payload = &SetterData{}
	case KindQuestion:
		payload = &QuestionData{}
	case KindTerminal:
		payload = &TerminalData{}
	case KindInterrogation:
		payload = &InterrogationData{}
	case KindIdentifyCulprit:
		payload = &IdentifyCulpritData{}
	case KindGroup:
		payload = &GroupData{}
	default:
		return nil, fmt.Errorf("unknown node kind: %s", kind)
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
	}
	return payload, nil
}
