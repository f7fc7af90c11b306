package domain

// NoticeVariant selects how a transient notification is styled.
type NoticeVariant string

const (
	NoticeSuccess NoticeVariant = "success"
	NoticeError   NoticeVariant = "error"
	NoticeInfo    NoticeVariant = "info"
)

// Notice is a one-shot, user-facing notification.
type Notice struct {
	Variant NoticeVariant
	Message string
}

func SuccessNotice(msg string) *Notice { return &Notice{Variant: NoticeSuccess, Message: msg} }
func ErrorNotice(msg string) *Notice   { return &Notice{Variant: NoticeError, Message: msg} }
func InfoNotice(msg string) *Notice    { return &Notice{Variant: NoticeInfo, Message: msg} }
