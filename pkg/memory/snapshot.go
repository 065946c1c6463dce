package memory

import "time"

// Profile holds the user's personal details. Fields other than the consent
// flag are only ever written while consent is true.
type Profile struct {
	Name            string    `json:"name,omitempty"`
	Age             int       `json:"age,omitempty"`
	FavoriteColor   string    `json:"favorite_color,omitempty"`
	FavoriteSubject string    `json:"favorite_subject,omitempty"`
	ConsentGiven    bool      `json:"consent_given"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProfileUpdate is a partial profile write. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name            *string
	Age             *int
	FavoriteColor   *string
	FavoriteSubject *string
}

// Interaction is one completed turn. Immutable once recorded.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
}

type longTerm struct {
	TopicsDiscussed []string `json:"topics_discussed"`
}

type metadata struct {
	TotalInteractions int        `json:"total_interactions"`
	LastInteraction   *time.Time `json:"last_interaction,omitempty"`
}

// snapshot is the on-disk document. It round-trips losslessly through
// load and save.
type snapshot struct {
	UserProfile Profile       `json:"user_profile"`
	ShortTerm   []Interaction `json:"short_term"`
	LongTerm    longTerm      `json:"long_term"`
	Metadata    metadata      `json:"metadata"`
}

func newSnapshot() snapshot {
	return snapshot{
		UserProfile: Profile{CreatedAt: time.Now().UTC()},
		ShortTerm:   []Interaction{},
		LongTerm:    longTerm{TopicsDiscussed: []string{}},
	}
}

// Context is the named set of personalization fields handed to the prompt
// composer. Profile fields are populated only while consent is true.
type Context struct {
	Name            string
	FavoriteColor   string
	FavoriteSubject string
	RecentTopics    []string
}

// Empty reports whether there is nothing to personalize with.
func (c Context) Empty() bool {
	return c.Name == "" && c.FavoriteColor == "" && c.FavoriteSubject == "" && len(c.RecentTopics) == 0
}

// Stats summarizes the store for status displays.
type Stats struct {
	TotalInteractions int
	ShortTermCount    int
	TopicsCount       int
	HasConsent        bool
	LastInteraction   *time.Time
}
