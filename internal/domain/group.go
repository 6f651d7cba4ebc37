package domain

// NoEndpoint marks a group slot without a producer.
const NoEndpoint = "NULL"

type GroupMode string

const (
	GroupCreate GroupMode = "create"
	GroupEdit   GroupMode = "edit"
	GroupDelete GroupMode = "delete"
)

// Group bundles at most one video and one audio producer of its owner.
type Group struct {
	ID      int      `json:"groupId"`
	VideoID string   `json:"video_id"`
	AudioID string   `json:"audio_id"`
	Owner   MemberID `json:"clientId"`
}
