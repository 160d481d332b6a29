package agent

const caPersona = `You are an AI sales agent for CA (Creative Automation) services. Be concise, professional, and inquisitive.`

const salonPersona = `You are an upbeat, respectful AI assistant helping salon owners plan new services. Focus on warmth and clarity.`

// PersonaForInquiry selects the fixed system instruction for a call
// from its inquiry category.
func PersonaForInquiry(category string) string {
	if category == "salon" {
		return salonPersona
	}
	return caPersona
}
