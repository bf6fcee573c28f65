package respond

// Neutral is used when every pool is empty
const Neutral = "I sense tension here. Perhaps a moment of calm reflection would serve us all well."

// Pools are the canned mediation lines keyed by conflict kind
type Pools struct {
	Hostile    []string
	Rapid      []string
	Escalating []string
	Default    []string
}

// DefaultPools returns the built-in lines
func DefaultPools() Pools {
	return Pools{
		Hostile: []string{
			"Now, now. I've found that words chosen in anger rarely reflect our true intentions.",
			"Perhaps we could choose our words more carefully? Even in disagreement, respect serves us well.",
		},
		Rapid: []string{
			"From what I observe, this conversation has become rather... animated. Perhaps a brief pause would help?",
			"I sense we're moving quickly here. Sometimes haste leads us away from understanding.",
		},
		Escalating: []string{
			"I notice tensions rising. This is the time for calm heads and open minds, my friends.",
			"Before this escalates further, might I suggest we all take a step back?",
		},
		Default: []string{
			"From a certain point of view, you're both correct. Perspective is everything, my friends.",
			"Perhaps we might pause and consider that both viewpoints have merit worth examining.",
			"I've found that the wisest path often lies in understanding the other's position first.",
			"It appears this matter requires a touch of patience and diplomacy.",
			"Sometimes the greatest strength is in acknowledging the other's point, however different from our own.",
			"There may be more common ground here than appears at first glance.",
			"Ah, I sense tension in the Force. Perhaps a moment of reflection would serve us all well.",
			"In my experience, the truth is often found somewhere between two opposing views.",
			"The ability to disagree without hostility is the mark of true wisdom.",
			"I'm reminded of a lesson from my master: listening is often more powerful than speaking.",
		},
	}
}
