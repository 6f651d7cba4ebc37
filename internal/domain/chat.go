package domain

type ChatMode string

const (
	ChatAll     ChatMode = "ALL"
	ChatPrivate ChatMode = "PRIVATE"
)

const (
	MaxChatLen        = 4096
	DefaultChatWindow = 50
	MaxChatWindow     = 200
)

// ChatMessage is immutable once appended to a room log.
// SendTo is empty for ChatAll and always contains From for ChatPrivate.
type ChatMessage struct {
	Seq    int64      `json:"seq"`
	MsgID  string     `json:"msgId"`
	TS     int64      `json:"ts"`
	Msg    string     `json:"msg"`
	Mode   ChatMode   `json:"mode"`
	SendTo []MemberID `json:"send_to"`
	From   MemberID   `json:"from"`
}

// VisibleTo reports whether id may read the message.
func (m ChatMessage) VisibleTo(id MemberID) bool {
	if m.Mode == ChatAll {
		return true
	}
	if m.From == id {
		return true
	}
	for _, to := range m.SendTo {
		if to == id {
			return true
		}
	}
	return false
}

// ChatPage is one window of a member's visible history.
type ChatPage struct {
	Messages []ChatMessage `json:"messages"`
	Before   int           `json:"before_messages_number"`
	After    int           `json:"after_messages_number"`
}
