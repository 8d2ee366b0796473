package cr

// CRService is the orchestration layer that coordinates across all components
// to perform the review operations needed by the CLI.
type CRService struct {
	git       Git
	index     Index
	contacts  ContactResolver
	editor    Editor
	outbox    Outbox
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

// NewCRService creates a new CRService with the provided dependencies.
// outbox and encryptor may be nil when reports are never published; editor
// may be nil when comments are always given on the command line.
func NewCRService(git Git, index Index, contacts ContactResolver, editor Editor, outbox Outbox, encryptor Encryptor, logger Logger, clock Clock) *CRService {
	return &CRService{
		git:       git,
		index:     index,
		contacts:  contacts,
		editor:    editor,
		outbox:    outbox,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}
