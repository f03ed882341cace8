package protocol

// Client → server record types.
const (
	TypeCheckID        = "CHECK_ID"
	TypeSignup         = "SIGNUP"
	TypeLogin          = "LOGIN"
	TypeToken          = "TOKEN"
	TypeEditNick       = "EDIT_NICK"
	TypeCmd            = "CMD"
	TypeMatchingCancel = "MATCHING_CANCEL"
	TypeSessionReady   = "SESSION_READY"
	TypeReport         = "REPORT"
	TypeAnswer         = "ANSWER"
)

// CmdQueryWait is the CMD subcommand requesting admission to the matching
// queue: CMD|QUERY_WAIT|<token>.
const CmdQueryWait = "QUERY_WAIT"

// Bidirectional record types. HINT is <word>|<n> from the client and
// <team>|<word>|<n> from the server; CHAT is <text> from the client and
// <team>|<slot>|<nick>|<text> from the server.
const (
	TypeHint = "HINT"
	TypeChat = "CHAT"
)

// Server → client record types.
const (
	TypeCheckIDOK        = "CHECK_ID_OK"
	TypeCheckIDDuplicate = "CHECK_ID_DUPLICATE"
	TypeCheckIDError     = "CHECK_ID_ERROR"
	TypeSignupOK         = "SIGNUP_OK"
	TypeSignupDuplicate  = "SIGNUP_DUPLICATE"
	TypeSignupError      = "SIGNUP_ERROR"
	TypeLoginOK          = "LOGIN_OK"
	TypeLoginNoAccount   = "LOGIN_NO_ACCOUNT"
	TypeLoginWrongPW     = "LOGIN_WRONG_PW"
	TypeLoginSuspended   = "LOGIN_SUSPENDED"
	TypeLoginError       = "LOGIN_ERROR"
	TypeTokenValid       = "TOKEN_VALID"
	TypeInvalidToken     = "INVALID_TOKEN"
	TypeNickEditOK       = "NICKNAME_EDIT_OK"
	TypeNickEditError    = "NICKNAME_EDIT_ERROR"
	TypeAuthError        = "AUTH_ERROR"

	TypeWaitReply       = "WAIT_REPLY"
	TypeQueueFull       = "QUEUE_FULL"
	TypeQueueError      = "QUEUE_ERROR"
	TypeCancelOK        = "CANCEL_OK"
	TypeSessionAck      = "SESSION_ACK"
	TypeSessionNotFound = "SESSION_NOT_FOUND"
	TypeLobbyError      = "LOBBY_ERROR"
	TypeReportOK        = "REPORT_OK"
	TypeReportError     = "REPORT_ERROR"

	TypeGameStart       = "GAME_START"
	TypeGameInit        = "GAME_INIT"
	TypeAllCards        = "ALL_CARDS"
	TypeTurnUpdate      = "TURN_UPDATE"
	TypeCardUpdate      = "CARD_UPDATE"
	TypeAnswerResult    = "ANSWER_RESULT"
	TypeGameOver        = "GAME_OVER"
	TypeGameCreateError = "GAME_CREATE_ERROR"
)

// Well-known field values.
const (
	ReasonUnknownPacket = "UNKNOWN_PACKET"
	ReasonMalformed     = "MALFORMED"
	ReasonNotFound      = "NOT_FOUND"
	ReasonDBError       = "DB_ERROR"
	AnswerInvalid       = "INVALID"
	ReportSuspended     = "SUSPENDED"
	// EmptySlot marks a vacant seat inside GAME_INIT.
	EmptySlot = "EMPTY"
	// SystemNick is the nickname on server-issued chat lines.
	SystemNick = "SYSTEM"
)
