package featureflag

type Flag string

const (
	FlagDisableSessionState              Flag = "DISABLE_SESSION_STATE"
	FlagDisableGridState                 Flag = "DISABLE_GRID_STATE"
	FlagDisableParticipantJoinBroadcast  Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
	FlagDisablePlacementBroadcast        Flag = "DISABLE_PLACEMENT_BROADCAST"
	FlagDisableRemovalBroadcast          Flag = "DISABLE_REMOVAL_BROADCAST"
	FlagDisableRotationBroadcast         Flag = "DISABLE_ROTATION_BROADCAST"
	FlagDisableFillBroadcast             Flag = "DISABLE_FILL_BROADCAST"
)
