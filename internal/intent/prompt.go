package intent

import (
	"fmt"
	"strings"
)

// promptHeader is the fixed instruction block sent ahead of every user
// command. Small local models drift without the repetition and the worked
// examples, so both stay in.
const promptHeader = `You are a STRICT command-to-JSON compiler.

YOU MUST ALWAYS OUTPUT VALID JSON.
You are NOT allowed to output nothing.
You are NOT allowed to output text.

If the command cannot be executed, you MUST output:
{ "steps": [] }

Allowed actions:
%s

Rules:
- Output JSON ONLY
- No explanations
- No markdown
- No extra text

Understand natural language:
- "create a file flower.txt in ab2"
- "create a text file named soul in ab3"
- "text file" means .txt
- Folder aliases: ab1, ab2, ab3

Examples:

User: create a file flower.txt in ab2
Output:
{
  "steps": [
    { "action": "create_file", "target": "AB2/flower.txt", "content": null }
  ]
}

User: create a text file named soul in ab3
Output:
{
  "steps": [
    { "action": "create_file", "target": "AB3/soul.txt", "content": null }
  ]
}

User: write "hello world" to notes.txt and then read it
Output:
{
  "steps": [
    { "action": "write_file", "target": "AB1/notes.txt", "content": "hello world" },
    { "action": "read_file", "target": "AB1/notes.txt", "content": null }
  ]
}

User: hello
Output:
{ "steps": [] }

REMEMBER:
YOU MUST ALWAYS OUTPUT JSON.

User: %s
`

// promptActions enumerates the allowed action kinds in the order the
// dispatcher documents them.
var promptActions = []ActionKind{
	ActionCreateFile, ActionWriteFile, ActionReadFile, ActionMoveFile,
	ActionDeleteFile, ActionOpenURL, ActionSearchWeb, ActionExtractWeb,
	ActionCopyClipboard, ActionPasteClipboard, ActionOpenApp, ActionCloseApp,
	ActionSystemInfo, ActionNone,
}

// BuildPrompt embeds the verbatim user text into the instruction header.
func BuildPrompt(userText string) string {
	kinds := make([]string, len(promptActions))
	for i, a := range promptActions {
		kinds[i] = string(a)
	}
	return fmt.Sprintf(promptHeader, strings.Join(kinds, "\n"), userText)
}
