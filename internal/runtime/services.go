package runtime

// FileResolver is the terminal content-mode lookup into the case's
// virtual file system. Implemented by the vfs package; only read access
// is needed here.
type FileResolver interface {
	ResolveContent(path string) (string, error)
}

// DialogueService produces suspect replies for interrogation turns.
// The reply never affects control flow directly; secrets are signalled
// through externally set variables.
type DialogueService interface {
	Ask(persona, utterance string) (string, error)
}
