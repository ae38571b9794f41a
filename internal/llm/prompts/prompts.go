// Package prompts holds the text sent to LLM providers.
package prompts

import (
	"fmt"
	"strings"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// SystemJSON is the system message for study generation.
const SystemJSON = "You are an expert Bible study curriculum designer. Always respond with valid JSON only."

// SystemPlainText is the system message for free-text completions.
const SystemPlainText = "You are an expert Bible study curriculum writer. Respond with plain text only, no JSON or markdown formatting."

// SystemClaude keeps Claude's long outputs parseable.
const SystemClaude = `You are an expert Bible study curriculum designer.

CRITICAL JSON FORMATTING RULES:
1. Respond with valid JSON only - no markdown, no code blocks, no preamble
2. All string values must be on a SINGLE LINE - never use literal line breaks
3. For multi-sentence content, write it all on one line within the quotes
4. Escape special characters properly: use \n for newlines, \" for quotes
5. For long passages, be concise - prioritize quality over quantity
6. Limit study_flow to 3-5 sections maximum even for long passages`

const finalInstruction = "Respond ONLY with valid JSON."

const studyTemplate = `You are an expert Bible study curriculum designer creating an in-depth expository study for personal use.

Given the following Bible passage, create a comprehensive study guide that guides the reader through the text section by section, weaving observation and interpretation questions together naturally.

Passage Reference: %s

Passage Text:
%s

IMPORTANT INSTRUCTIONS:

1. STUDY FLOW STRUCTURE:
   - Break the passage into logical sections (2-4 sections typically)
   - For each section, provide BOTH an observation question AND an interpretation question
   - Observation asks "What does the text literally say?" (who, what, when, where)
   - Interpretation asks "What does this mean spiritually/theologically?"
   - Include sample answers for both observation and interpretation questions
   - Optionally add a "connection" sentence that bridges to the next section

2. APPLICATION QUESTIONS:
   - Provide 3 application questions at the end
   - Do NOT provide sample answers for application (personal reflection)
   - Make them practical and actionable

3. CROSS-REFERENCES:
   - Include cross references when they have direct involvement or are quoted in the passage.
   - Many passages in the New Testament allude to events/accounts in the Old Testament; include these
   - Each must have a clear explanatory note
   - Quality over quantity - if no meaningful references exist, it is fine to have none.

4. THEOLOGICAL GUIDELINES (Reformed Christian):
   You MUST ensure all generated content aligns with these doctrines:

   a) THE TRINITY: One God existing eternally as three distinct persons - Father, Son, and Holy Spirit - each fully God, sharing one undivided divine essence.

   b) TOTAL DEPRAVITY: All humanity is sinful from birth and utterly unable to save themselves apart from God's sovereign grace.

   c) UNCONDITIONAL ELECTION: God sovereignly chooses those He will save, not based on any foreseen merit, faith, or works in the person.

   d) SUBSTITUTIONARY ATONEMENT: Jesus Christ, fully God and fully man, died as a substitutionary sacrifice bearing the wrath of God for the sins of His people, and rose for their justification.

   e) SALVATION BY GRACE THROUGH FAITH: Salvation is entirely by grace through faith in Christ alone - not by human works, merit, or decision.

   f) SCRIPTURE AUTHORITY: The Bible is the infallible, inerrant Word of God, the final authority for faith and practice.

   g) PERSEVERANCE OF THE SAINTS: Those truly saved by God will be kept by His power unto eternal life and cannot lose their salvation.

5. HANDLING AMBIGUOUS OR DEBATED PASSAGES:
   - Focus on what the text clearly and concretely states
   - If a passage has multiple scholarly interpretations on non-essential matters, acknowledge this briefly
   - Always interpret unclear passages in light of clearer Scripture (let Scripture interpret Scripture)
   - Never speculate beyond what the text supports
   - For disputed interpretations, present the Reformed position while noting that debate exists among scholars
   - Do NOT generate content that contradicts the theological guidelines above

6. OUTPUT FORMAT:
   - Return ONLY valid JSON, no markdown code blocks, no preamble
   - Follow the exact structure below

JSON STRUCTURE:
{
    "purpose": "Single-sentence action-focused purpose starting with an action verb. If the passage is more about truths/knowledge, the verb can be 'Know' or 'Believe'",
    "context": "2-3 sentences of historical, cultural, or literary background",
    "key_themes": ["theme1", "theme2", "theme3"],
    "study_flow": [
        {
            "passage_section": "Verse range (e.g., 'John 1:1-2')",
            "section_heading": "Brief descriptive heading",
            "observation_question": "What does the text literally say about...?",
            "observation_answer": "Complete answer based on careful reading of the text",
            "interpretation_question": "What does this mean spiritually/theologically?",
            "interpretation_answer": "Complete interpretive answer connecting to broader meaning",
            "connection": "Optional: How this section connects to the next"
        }
    ],
    "summary": "2-3 sentences synthesizing the main themes and message",
    "application_questions": [
        "Personal reflection question 1 (no answer)",
        "Personal reflection question 2 (no answer)",
        "Personal reflection question 3 (no answer)"
    ],
    "cross_references": [
        {
            "reference": "Book Chapter:Verse",
            "note": "Brief explanation of how this illuminates the passage"
        }
    ],
    "prayer_prompt": "A focused prayer direction based on this passage (3-4 sentences)"
}

` + finalInstruction

const flowTemplate = `

USER-DEFINED STUDY FLOW CONTEXT:
The user has specified the following purposes/focuses for each section of this passage:

%s

Based on the above flow context, please:
1. Structure your study_flow sections to align with these user-defined purposes
2. Generate questions that address the specific purposes defined for each section
3. You are NOT strictly bound to observation-then-interpretation order within sections
4. Interpretation questions can come at the end of sections if that better serves the flow
5. Include "feeling" questions (e.g., "How does this truth make you feel?") ONLY when:
   - The passage reveals profound theological truths about God's character or salvation
   - The text is meant to evoke an emotional or spiritual response (worship, awe, gratitude)
   - It naturally follows an interpretation of a moving truth
   - Do not force feeling questions - only include when genuinely appropriate
`

// Study builds the interwoven study prompt. When flow carries section
// purposes they are inserted just before the final JSON instruction.
func Study(reference, passageText string, flow *entities.FlowContext) string {
	base := fmt.Sprintf(studyTemplate, reference, passageText)
	if flow.Empty() {
		return base
	}

	lines := make([]string, 0, len(flow.SectionPurposes))
	for _, sp := range flow.SectionPurposes {
		section := sp.PassageSection
		if section == "" {
			section = "Section"
		}
		purpose := sp.Purpose
		if purpose == "" {
			purpose = "General study"
		}
		line := fmt.Sprintf("- %s: %s", section, purpose)
		if len(sp.FocusAreas) > 0 {
			line += fmt.Sprintf(" (Focus: %s)", strings.Join(sp.FocusAreas, ", "))
		}
		lines = append(lines, line)
	}
	addon := fmt.Sprintf(flowTemplate, strings.Join(lines, "\n"))

	cut := strings.LastIndex(base, finalInstruction)
	return base[:cut] + addon + "\n\n" + finalInstruction
}

// WithSystem prefixes a prompt with a system message for providers that take
// a single text input.
func WithSystem(system, prompt string) string {
	return system + "\n\n" + prompt
}
