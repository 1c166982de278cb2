package history

// Common English words (plus dictation filler) excluded from lexical
// frequency counts.
var stopwords = map[string]struct{}{}

func init() {
	words := []string{
		"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
		"be", "have", "has", "had", "do", "does", "did", "will", "would",
		"could", "should", "may", "might", "must", "shall", "can", "need",
		"dare", "ought", "used", "i", "you", "he", "she", "it", "we", "they",
		"me", "him", "her", "us", "them", "my", "your", "his", "its", "our",
		"their", "this", "that", "these", "those", "what", "which", "who",
		"whom", "whose", "where", "when", "why", "how", "all", "each", "every",
		"both", "few", "more", "most", "other", "some", "such", "no", "nor",
		"not", "only", "own", "same", "so", "than", "too", "very", "just",
		"also", "now", "here", "there", "then", "once", "if", "because",
		"until", "while", "about", "into", "through", "during", "before",
		"after", "above", "below", "between", "under", "again", "further",
		"any", "up", "down", "out", "off", "over",
		"going", "gonna", "like", "okay", "ok", "yeah", "yes", "um",
		"uh", "ah", "oh", "well", "right", "actually", "basically", "really",
		"thing", "things", "something", "anything", "everything",
	}
	for _, w := range words {
		stopwords[w] = struct{}{}
	}
}
