package services

import "fmt"

const (
	quizQuestionCount = 5
	flashcardCount    = 16

	quizSystemPrompt = "You are a professional quiz creator. You must create questions that are SPECIFIC to the provided content. " +
		"Use exact facts, names, dates, and details from the text. Never create generic questions. " +
		"Always respond with valid JSON only. If you cannot create specific questions from the content, respond with an empty array []."

	flashcardSystemPrompt = "You are a professional flashcard creator. You must create flashcards that are SPECIFIC to the provided content. " +
		"Use exact facts, names, dates, and details from the text. Never create generic flashcards. " +
		"Always respond with valid JSON only. If you cannot create specific flashcards from the content, respond with an empty array []."

	transcriptSystemPrompt = "You are a professional transcript creator. You must preserve ALL information from the provided content " +
		"while improving formatting and readability. Never add or remove important facts. " +
		"If you cannot create a proper transcript from the content, respond with 'Unable to generate transcript from provided content.'"
)

// Tham số cố định cho từng loại, nhiệt độ thấp để giữ đúng định dạng
var (
	quizParams       = CompletionParams{Temperature: 0.1, MaxTokens: 3000}
	flashcardParams  = CompletionParams{Temperature: 0.1, MaxTokens: 3500}
	transcriptParams = CompletionParams{Temperature: 0.1, MaxTokens: 4000}
)

func buildQuizPrompt(content string) string {
	return fmt.Sprintf(`
You are an expert quiz creator. Based on the following document content, create %[1]d challenging multiple-choice questions that test understanding of the specific facts, details, and key information mentioned in the text.

CRITICAL REQUIREMENTS:
1. Create exactly %[1]d questions
2. Each question must have exactly 4 options (A, B, C, D)
3. Only one option should be correct
4. Questions MUST be specific to the actual content provided - use real facts, names, dates, and details from the text
5. Do NOT create generic questions
6. Return ONLY valid JSON in this exact format:

[
  {
    "question": "Specific question about actual content from the document",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "answer": "A"
  }
]

Document content to analyze:
%[2]s

Generate the quiz now:`, quizQuestionCount, content)
}

func buildFlashcardPrompt(content string) string {
	return fmt.Sprintf(`
You are an expert flashcard creator. Based on the following document content, create %[1]d educational flashcards that cover specific facts, details, and key information mentioned in the text.

CRITICAL REQUIREMENTS:
1. Create exactly %[1]d flashcards
2. Each flashcard must have a clear, specific question and a concise, accurate answer
3. Questions MUST be specific to the actual content provided - use real facts, names, dates, and details from the text
4. Cover different types of questions: definitions, facts, statistics, relationships
5. Return ONLY valid JSON in this exact format:

[
  {
    "question": "Specific question about actual content from the document",
    "answer": "Concise, accurate answer based on the specific content"
  }
]

Document content to analyze:
%[2]s

Generate the flashcards now:`, flashcardCount, content)
}

func buildTranscriptPrompt(content string) string {
	return fmt.Sprintf(`
You are an expert transcript creator. Based on the following document content, create a comprehensive, well-structured transcript that maintains all the important information while improving readability and organization.

CRITICAL REQUIREMENTS:
1. Preserve ALL important facts, names, dates, and details from the original content
2. Organize the content into logical sections with clear headings
3. Maintain the chronological order and flow of information
4. Do NOT add any information that is not in the original content
5. Return ONLY the formatted transcript text

Document content to transcribe:
%s

Create a well-structured transcript now:`, content)
}
