package llm

const (
	systemWriting      = "You are an expert writing assistant."
	systemGrammar      = "You are an expert grammar checker."
	systemTone         = "You are an expert in analyzing writing tone and style."
	systemInbox        = "You are an expert email analysis assistant. Always respond with valid JSON."
	systemInsights     = "You are an expert email analyst. Analyze the provided emails and provide insights in the requested JSON format."
	systemSummary      = "You are an expert email analyst. Generate comprehensive summaries of email communications."
	systemPatterns     = "You are an expert in communication pattern analysis. Identify meaningful patterns in email communications."
	systemImprovements = "You are an expert in email communication and productivity. Provide actionable improvement suggestions."
)

const generateEmailPrompt = `You are an expert email writer. Transform the following raw thoughts into a well-crafted email with a %[2]s tone.

Raw thoughts: "%[1]s"

Instructions:
- Write a complete, professional email body
- Use a %[2]s tone throughout
- Make it clear, engaging, and well-structured
- Ensure proper email etiquette
- Do not include a subject line
- Keep it concise but comprehensive

Respond with ONLY the email body content. Do not include any explanations or additional text outside of the email.`

const improveTextPrompt = `You are an expert writing assistant. Improve the following text by focusing on: %[2]s.

Original text: "%[1]s"

Instructions:
- Fix any grammar issues
- Improve clarity and readability
- Enhance the writing style
- Maintain the original meaning and tone
- Make the text more professional and polished
- Keep the same length or slightly shorter

Respond with ONLY the improved text. Do not include any explanations or markdown formatting.`

const checkGrammarPrompt = `You are an expert grammar checker. Analyze the following text for grammar, spelling, and style issues.

Text: "%s"

Instructions:
- Identify grammar errors, spelling mistakes, and style issues
- Provide specific suggestions for improvement
- Focus on common issues like subject-verb agreement, punctuation, word choice
- Quote "text" exactly as it appears in the input
- Return the results in JSON format with the following structure:
{
  "suggestions": [
    {
      "type": "Grammar|Spelling|Style",
      "text": "the problematic text",
      "fix": "the corrected version"
    }
  ]
}

Only return valid JSON. Do not include any other text.`

const analyzeTonePrompt = `You are an expert in analyzing writing tone and style. Analyze the tone of the following text.

Text: "%s"

Instructions:
- Identify the primary tone (Professional, Friendly, Formal, Casual, Confident, etc.)
- Provide specific suggestions for tone improvement
- Consider word choice, sentence structure, and overall writing style
- Return the results in JSON format with the following structure:
{
  "primaryTone": "Professional",
  "suggestions": [
    "Consider using more active voice",
    "Add more specific details to strengthen your message"
  ]
}

Only return valid JSON. Do not include any other text.`

const writingSuggestionsPrompt = `You are an expert writing assistant. Analyze the following %[2]s text and provide specific writing suggestions.

Text: "%[1]s"

Instructions:
- Provide 2-4 specific, actionable writing suggestions
- Focus on grammar, style, clarity, and tone improvements
- Make suggestions that can be applied immediately
- Consider the context (%[2]s)
- Return the results in JSON format with the following structure:
{
  "suggestions": [
    {
      "type": "replacement|insertion|improvement",
      "text": "the suggested text or improvement",
      "original": "the original text (for replacement type)",
      "description": "brief explanation of the suggestion"
    }
  ]
}

Only return valid JSON. Do not include any other text.`

const analyzeInboxPrompt = `Analyze these recent emails and create a prioritized to-do list. For each email, determine:

1. Category: SALES, INFO, PROMO, URGENT, MEETING, SPAM, or OTHER
2. Priority: HIGH, MEDIUM, or LOW
3. Action needed (if any)
4. Deadline (if mentioned or implied)
5. Whether it's SPAM (unsolicited promotional, phishing, suspicious content)

For spam detection, look for:
- Unsolicited promotional content
- Suspicious sender patterns
- Generic/bulk email indicators
- Phishing attempts
- Misleading subject lines
- Excessive promotional language

Focus on emails that require action, response, or follow-up for actionable items. Classify obvious spam separately.

Emails to analyze:
%s

Respond in JSON format:
{
  "todos": [
    {
      "id": "email_id_here",
      "subject": "email subject",
      "from": "sender name/email",
      "category": "SALES|INFO|PROMO|URGENT|MEETING|SPAM|OTHER",
      "priority": "HIGH|MEDIUM|LOW",
      "action": "specific action needed",
      "deadline": "deadline if any",
      "context": "brief context/summary",
      "isSpam": false
    }
  ],
  "spam": [
    {
      "id": "email_id_here",
      "subject": "email subject",
      "from": "sender name/email",
      "reason": "why it's classified as spam",
      "context": "brief context/summary",
      "spamType": "promotional|phishing|suspicious|bulk"
    }
  ],
  "summary": {
    "totalEmails": 0,
    "actionableEmails": 0,
    "spamEmails": 0,
    "categories": {
      "SALES": 0,
      "INFO": 0,
      "PROMO": 0,
      "URGENT": 0,
      "MEETING": 0,
      "SPAM": 0,
      "OTHER": 0
    }
  }
}`

const dailyInsightsPrompt = `Analyze the following emails from today and provide insights:

Emails: %s

All Content: %s

Please provide:
1. Common topics/themes (3-5 most frequent)
2. Key insights about communication patterns
3. Writing style observations
4. Any notable trends

Format your response as JSON with these fields:
{
  "commonTopics": ["topic1", "topic2", "topic3"],
  "insights": "Detailed insights about the emails...",
  "writingStyle": "Observations about writing style...",
  "trends": "Notable trends or patterns..."
}`

const dailySummaryPrompt = `Generate a comprehensive summary of today's emails:

Emails: %s

Please provide:
1. Executive summary of key communications
2. Important themes and topics
3. Action items or follow-ups needed
4. Communication effectiveness insights

Format as a well-structured summary with clear sections.`

const dailyPatternsPrompt = `Analyze these emails to identify communication patterns:

Emails: %s

Please identify:
1. Communication patterns (frequency, timing, style)
2. Recipient patterns (who you communicate with most)
3. Content patterns (types of messages, common phrases)
4. Response patterns (if applicable)
5. Efficiency patterns (email length, complexity)

Format as a detailed analysis with specific examples.`

const dailyImprovementsPrompt = `Analyze these emails and suggest improvements:

Emails: %s

Please provide specific suggestions for:
1. Writing style improvements
2. Communication efficiency
3. Email organization and structure
4. Tone and professionalism
5. Time management and response patterns

Format as actionable recommendations with examples.`
