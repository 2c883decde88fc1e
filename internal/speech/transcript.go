package speech

import "strings"

// AssembleTranscript joins the top alternative of each recognition result, in
// result order, with newlines. An empty result list yields an empty string.
func AssembleTranscript(results []Result) string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		if len(result.Alternatives) == 0 {
			continue
		}
		lines = append(lines, result.Alternatives[0].Transcript)
	}
	return strings.Join(lines, "\n")
}
