package safety

import "fmt"

// RefusalResponse builds an age-appropriate refusal for blocked input.
func RefusalResponse(age int) string {
	if age <= 10 {
		return "I can't help with that question. Please ask a parent or teacher instead!"
	}
	return "I'm not able to answer that question. For important topics like this, it's best to talk to a trusted adult, parent, or teacher."
}

// RedirectResponse builds an age-appropriate deferral naming the topic.
func RedirectResponse(topic string, age int) string {
	if age <= 10 {
		return fmt.Sprintf("That's an important question about %s! I think a parent, teacher, or doctor would be the best person to ask about this.", topic)
	}
	return fmt.Sprintf("For questions about %s, I'd recommend talking to a qualified professional like a parent, teacher, or doctor. They can give you better guidance than I can!", topic)
}
