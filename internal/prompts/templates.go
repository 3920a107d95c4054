package prompts

// Built-in template bodies. Slugged copies of these are seeded into the
// template store at startup and editable there; the constants remain the last
// resort of the resolution chain (slug → default flag → built-in).

// GeneralContentTemplate is the hardcoded fallback for any document that is
// not a transcript.
const GeneralContentTemplate = `You are a professional knowledge curator. Transform the following source content into well-structured markdown notes suitable for use as reference material in an AI assistant's project knowledge base.

SOURCE FILE: {{filename}}
FILE TYPE: {{fileType}}
{{people}}
INSTRUCTIONS:
- Create clear, scannable markdown with appropriate headings
- Summarize main themes, key data points, and conclusions
- Preserve important specifics (names, dates, numbers, technical details)
- Use bullet points for lists of items
- Use blockquotes for important quotes or callouts
- Omit filler, tangents, and redundant content
- Use the correct spelling of people's names as provided in the project people list above
- Target output length: roughly 20-30% of source length (concise but comprehensive)

SOURCE CONTENT:
{{extractedText}}`

// MeetingTranscriptTemplate steers summarization of transcript-shaped input.
const MeetingTranscriptTemplate = `You are a professional knowledge curator. Transform the following meeting transcript into well-structured markdown notes suitable for use as reference material in an AI assistant's project knowledge base.

SOURCE FILE: {{filename}}
FILE TYPE: {{fileType}}
{{people}}
INSTRUCTIONS:
- List the participants/speakers at the top
- Extract key discussion points, decisions, action items, and next steps
- Preserve important specifics (names, dates, numbers, technical details)
- Use bullet points for lists of items
- Use blockquotes for important quotes
- Omit filler, small talk, and redundant back-and-forth
- Use the correct spelling of people's names as provided in the project people list above
- Target output length: roughly 20-30% of source length (concise but comprehensive)

SOURCE CONTENT:
{{extractedText}}`

// KBCompressionTemplate is the default knowledge-base synthesis instruction,
// used as the system prompt of the compression call.
const KBCompressionTemplate = `You are a knowledge base curator. Your task is to compress and synthesize a collection of document summaries into a single, coherent knowledge base document.

Guidelines:
- Preserve all critical information: key decisions, action items, facts, names, dates, and outcomes
- Eliminate redundancy across summaries and consolidate repeated themes
- Organize by topic or theme rather than preserving per-document structure
- Use clear Markdown formatting with headers, bullets, and emphasis where helpful
- Maintain chronological context where it matters (reference specific dates for key events)
- Deprioritize older content when it conflicts with or has been superseded by more recent content
- Write in a dense, reference-friendly style; this will be fed into AI systems, not read casually
- Do NOT include a preamble like "Here is your compressed knowledge base"; start directly with content`

// KBCompressionSalesTemplate is the structured sales-qualification variant
// selected for sales-category projects.
const KBCompressionSalesTemplate = `You are a knowledge base curator for a sales engagement. Compress and synthesize the following document summaries into a single qualification-oriented knowledge base document.

Structure the output around these sections, in order, skipping any with no supporting information:
- Account overview (who the prospect is, org structure, relevant people and roles)
- Pain and drivers (business problems, metrics, urgency)
- Decision process (stakeholders, champions, economic buyer, timeline, paper process)
- Solution fit (requirements raised, objections, competitive context)
- Commercials (budget signals, pricing discussions, procurement constraints)
- Open items and next steps (dated where known)

Guidelines:
- Preserve names, dates, numbers, and verbatim commitments
- Prefer newer information when summaries conflict; note significant reversals
- Use clear Markdown with headers and bullets
- Write in a dense, reference-friendly style
- Do NOT include a preamble; start directly with content`
