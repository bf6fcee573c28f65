package hostility

// table is the fixed hostile keyword list. Entries are lowercase substrings;
// several overlap on purpose ("shit" and "bullshit") and each present entry
// counts once.
var table = []string{
	// intelligence insults
	"stupid", "idiotic", "idiot", "moron", "dumb", "dumbass", "braindead",
	"fool", "foolish", "ignorant", "clueless", "delusional",

	// f-word variants
	"fuck", "fucking", "fucked", "fucker", "fk", "fck", "fuk", "f*ck",
	"shut the fuck up", "what the fuck", "the fuck",

	// s-word variants
	"shit", "shitty", "bullshit", "bs", "piece of shit", "full of shit",

	// other profanity
	"asshole", "a**hole", "bitch", "btch", "damn", "damned",
	"crap", "crappy", "hell", "go to hell",

	// dismissive commands
	"shut up", "stfu", "gtfo", "shut it", "shut your mouth",
	"piss off", "screw you", "screw off", "get lost", "buzz off",

	// extreme
	"kys", "kill yourself", "kill your",

	// general insults
	"trash", "garbage", "pathetic", "loser", "clown", "worthless",
	"useless", "incompetent", "disgrace", "embarrassment", "scum",
	"joke", "waste of time", "waste of space",

	// quality attacks
	"terrible", "awful", "worst", "disgusting",

	// direct hostility
	"hate you", "hate your", "despise",

	// correctness attacks
	"wrong", "you're wrong", "completely wrong", "so wrong",

	// dismissive replies
	"nobody asked", "didn't ask", "who asked", "who cares", "don't care",

	// ableist slurs
	"retard", "retarded", "r*tard",

	// context dependent
	"toxic", "cancer", "cringe", "cringey", "embarrassing",
	"noob", "scrub",
}

// Keywords returns a copy of the keyword table
func Keywords() []string {
	out := make([]string, len(table))
	copy(out, table)
	return out
}
