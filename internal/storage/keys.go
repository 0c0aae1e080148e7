package storage

// Logical storage keys managed by the mirror. The set mirrors exactly what
// the widget persists in the browser; EnsureBackups walks this list.
const (
	KeyConversationHistory  = "henry_chat_history"
	KeyUserProfile          = "userProfile"
	KeyTrackedApplications  = "trackedApplications"
	KeyAnalysisData         = "analysisData"
	KeyResumeData           = "resumeData"
	KeyCoverLetterData      = "coverLetterData"
	KeyLevelingData         = "levelingData"
	KeyStrengthenedData     = "strengthenedData"
	KeyWelcomeSeen          = "henry_welcome_seen"
	KeyWelcomeBackSeen      = "henry_welcome_back_seen"
	KeyCameFromProfileSetup = "cameFromProfileSetup"
)

// ManagedKeys returns every key the mirror reconciles, in a fixed order.
func ManagedKeys() []string {
	return []string{
		KeyConversationHistory,
		KeyUserProfile,
		KeyTrackedApplications,
		KeyAnalysisData,
		KeyResumeData,
		KeyCoverLetterData,
		KeyLevelingData,
		KeyStrengthenedData,
		KeyWelcomeSeen,
		KeyWelcomeBackSeen,
		KeyCameFromProfileSetup,
	}
}
