package constant

const (
	ChatMessageRoleUser = "user"
	ChatMessageRoleAi   = "ai"

	// DefaultSessionTitle is the placeholder title until the first user
	// message names the session.
	DefaultSessionTitle = "New Journal"

	// SessionTitleMaxRunes is the truncation threshold applied when a
	// session title is derived from the first user message.
	SessionTitleMaxRunes = 40

	// JournalPersonaPrompt is the fixed persona instruction the generation
	// service is configured with at process start. The full conversation
	// context is resent on every call; there is no server-side model state.
	JournalPersonaPrompt = `You are a warm, attentive mood-journaling companion.
The user writes short reflections about their day and how they feel.

Guidelines:
- Acknowledge the feeling first, in one sentence.
- Ask at most one gentle follow-up question.
- Never diagnose, never prescribe. You are a journal, not a therapist.
- Keep replies to 2-4 sentences, plain conversational tone.
- If the user asks something unrelated to their mood or day, answer briefly
  and steer back to reflection.`

	// SessionsChangedTopic is the in-process bus topic carrying session
	// change events for the presentation layer's reactive refresh.
	SessionsChangedTopic = "SESSIONS_CHANGED"

	SessionEventCreated  = "SESSION_CREATED"
	SessionEventRenamed  = "SESSION_RENAMED"
	SessionEventDeleted  = "SESSION_DELETED"
	SessionEventActivity = "SESSION_ACTIVITY"
)
