package narration

import (
	"fmt"
	"regexp"
	"strings"
)

const systemPrompt = `You are a helpful assistant for a blind user. Be concise and direct. Only describe what is certainly present. Do not ask questions.
If the context mentions a "mirror" or "reflection" and it seems to be describing the user themselves, assume it is a camera artifact and describe it as the person being present or facing the camera.`

const rules = `TASK: Synthesize the context and entities into one natural sentence.
IMPORTANT RULES:
1. PRIORITIZE ENTITY COUNT: the Entities list comes from an object detector and is more reliable for counting than the Context.
2. COUNT REPEATS: the same object type listed several times means several objects (e.g. "car: stationary" and "car: approaching" are 2 cars), unless the Context clearly describes one single object.
3. If the Context mentions a person holding an object that also appears in Entities, do not describe the object as moving on its own. It moves with the person.
4. Small handheld objects moving in the same direction as a person are held items, not independent threats.
5. Prioritize safety information about independently moving objects: vehicles, other people, animals.
6. Ignore any coordinates or box numbers. Treat such an entity as present in front of the user.`

// ComposePrompt builds the system and user messages for one narration.
// Movements are listed in the order given, one per line.
func ComposePrompt(scene string, movements []string) (system, user string) {
	var entities strings.Builder
	if len(movements) == 0 {
		entities.WriteString("- No objects detected.")
	}
	for i, m := range movements {
		if i > 0 {
			entities.WriteByte('\n')
		}
		entities.WriteString("- ")
		entities.WriteString(m)
	}

	user = fmt.Sprintf("Context: %q\nEntities (detected by object detection system):\n%s\n\n%s",
		strings.TrimSpace(scene), entities.String(), rules)
	return systemPrompt, user
}

var followUps = []*regexp.Regexp{
	regexp.MustCompile(`(?is)is there anything else I can assist you with\?.*`),
	regexp.MustCompile(`(?is)please let me know.*`),
	regexp.MustCompile(`(?is)let me know if you need.*`),
	regexp.MustCompile(`(?is)feel free to ask.*`),
	regexp.MustCompile(`(?is)would you like.*`),
	regexp.MustCompile(`(?is)I can help.*`),
}

var (
	repeatedDots = regexp.MustCompile(`\.{2,}`)
	whitespace   = regexp.MustCompile(`\s+`)
)

var helpPhrases = []string{"anything else", "need help", "assist", "let me know"}

// Clean strips follow-up offers and chatter from a model answer so only the
// description is spoken.
func Clean(narration string) string {
	s := narration
	for _, re := range followUps {
		s = re.ReplaceAllString(s, "")
	}
	s = repeatedDots.ReplaceAllString(s, ".")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if strings.HasSuffix(s, "?") {
		lower := strings.ToLower(s)
		for _, p := range helpPhrases {
			if strings.Contains(lower, p) {
				s = strings.TrimSpace(strings.TrimRight(s, "?")) + "."
				break
			}
		}
	}
	return s
}
