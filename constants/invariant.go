package constants

const (
	// single fixed key for the persisted settings snapshot
	SETTINGS_SNAPSHOT_KEY = "leadform_settings"

	MAX_FIELD_LENGTH       = 200
	MAX_PURPOSE_LENGTH     = 2000
	MAX_THEME_VALUE_LENGTH = 300

	POW_DIFFICULTY            = 15
	POW_CHALLENGE_TTL_MINUTES = 10

	DEBUG_MODE = false
)
