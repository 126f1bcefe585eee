package model

// Modality is the delivery shape of an outbound broadcast message.
type Modality int

const (
	ModalityUnsupported Modality = iota
	ModalityText
	ModalityPhoto
	ModalityVideo
)

// OutboundMessage is an admin-authored message to fan out. File ids refer
// to media already stored on the Telegram side, so resending is cheap.
type OutboundMessage struct {
	Text    string
	PhotoID string
	VideoID string
	Caption string
}

// Modality picks the delivery shape. Photo wins over video if both are
// somehow set; plain text requires non-empty Text.
func (m OutboundMessage) Modality() Modality {
	switch {
	case m.PhotoID != "":
		return ModalityPhoto
	case m.VideoID != "":
		return ModalityVideo
	case m.Text != "":
		return ModalityText
	default:
		return ModalityUnsupported
	}
}

// BroadcastReport partitions the recipient set of one fan-out run:
// Sent + Failed + Skipped always equals the number of recipients.
type BroadcastReport struct {
	Sent    int
	Failed  int
	Skipped int
}

func (r BroadcastReport) Total() int { return r.Sent + r.Failed + r.Skipped }
