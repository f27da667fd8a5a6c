package intake

type Tip struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

type Emergency struct {
	Heading        string   `json:"heading" yaml:"heading"`
	Message        []string `json:"message" yaml:"message"`
	WellnessTips   []Tip    `json:"wellnessTips" yaml:"wellnessTips"`
	SupportOptions []Tip    `json:"supportOptions" yaml:"supportOptions"`
	Encouragement  string   `json:"encouragement" yaml:"encouragement"`
}

// EmergencyResources is what the emergency view shows instead of an analysis.
func EmergencyResources() Emergency {
	return Emergency{
		Heading: "We're here for you",
		Message: []string{
			"It sounds like you might be going through a really difficult time. That's okay, and reaching out is a brave first step.",
			"While this tool can't provide the support you need right now, there are people who can help. Please consider reaching out to one of the resources below.",
		},
		WellnessTips: []Tip{
			{"Practice Deep Breathing", "Try the 4-7-8 technique: breathe in for 4 seconds, hold for 7, exhale for 8. This activates your body's relaxation response."},
			{"Ground Yourself", "Use the 5-4-3-2-1 method: notice 5 things you see, 4 you can touch, 3 you hear, 2 you smell, and 1 you taste."},
			{"Move Your Body", "Even a short 10-minute walk can boost your mood by releasing endorphins and reducing stress hormones."},
			{"Stay Hydrated", "Dehydration can worsen anxiety and fatigue. Aim for 8 glasses of water daily to support your mental clarity."},
			{"Connect with Someone", "Reach out to a friend, family member, or colleague. Social connection is one of the most powerful ways to improve your mood."},
			{"Limit Screen Time Before Bed", "Blue light disrupts sleep. Try to avoid screens 1 hour before bedtime for better rest and mental health."},
		},
		SupportOptions: []Tip{
			{"Talk to someone you trust", "A friend, family member, teacher, or colleague who can listen"},
			{"Visit a local clinic", "Your local hospital or health center can connect you with support"},
		},
		Encouragement: "Remember: Asking for help is a sign of strength, not weakness. You matter, and things can get better with the right support.",
	}
}
