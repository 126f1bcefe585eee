package usecase

// Conversation steps for the admin console. A step is armed by a menu
// action and consumed by the admin's next free-form message.
const (
	StepAwaitingAddSlots       = "awaiting_add_slots"
	StepAwaitingBanTarget      = "awaiting_ban_target"
	StepAwaitingUnbanTarget    = "awaiting_unban_target"
	StepAwaitingDefaultSlots   = "awaiting_default_slots"
	StepAwaitingReferralReward = "awaiting_referral_reward"
	StepAwaitingBroadcast      = "awaiting_broadcast"
)
