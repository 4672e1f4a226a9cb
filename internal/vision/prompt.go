package vision

import (
	"fmt"
	"strconv"
	"strings"
)

const annotateFormat = `{
    "text": <Annotate the following image and find anything which is broken or malfunctioning in it>,
    "title": <Title for the text field. The length of this field should be maximum of 7 words but prefer shorter>,
    "kind": <Can the following image be classified in the following classes %s? Only answer with one of the kinds and nothing else>
}`

func verifyMessages(kind string, image []byte) []message {
	return []message{
		{
			Role: "system",
			Content: []contentPart{
				{Type: "text", Text: fmt.Sprintf("Does a class %s describe the following image?", kind)},
				{Type: "text", Text: `Answer with only "yes" or "no".`},
			},
		},
		imageMessage(image),
	}
}

func annotateMessages(kinds []string, image []byte) []message {
	return []message{
		{
			Role: "system",
			Content: []contentPart{
				{Type: "text", Text: "Respond with a json with following format: " + fmt.Sprintf(annotateFormat, kindList(kinds))},
				{Type: "text", Text: "Respond in finnish"},
			},
		},
		imageMessage(image),
	}
}

func imageMessage(image []byte) message {
	return message{
		Role: "user",
		Content: []contentPart{
			{Type: "image_url", ImageURL: &imageRef{URL: imageURL(image)}},
		},
	}
}

// kindList renders kinds as ["a", "b"].
func kindList(kinds []string) string {
	quoted := make([]string, len(kinds))
	for i, k := range kinds {
		quoted[i] = strconv.Quote(k)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
