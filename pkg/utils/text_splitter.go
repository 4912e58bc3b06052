package utils

// SplitText splits a long string into overlapping chunks of approximately
// 'chunkSize' characters. The 'overlap' preserves context across chunk
// boundaries so a sentence cut in half is still retrievable from the
// neighbouring chunk. This is a simple character-based splitter; a
// tokenizer-aware splitter would be more precise but heavier.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
