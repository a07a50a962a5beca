package gemini

// SummaryInstruction is the fixed instruction payload for digest
// summarization requests. The message lines follow as the request body.
const SummaryInstruction = `You are an editor producing a daily digest of a group chat.
The input is one line per message from the last 24 hours, formatted as
"author: text" with optional trailing [tickers: ...], [links: ...], and
[contracts: ...] annotations.

Rules:
- Merge near-duplicate ideas into one item, attributed to the earliest author.
- Each idea is at most 20 words.
- Tickers are upper-case without the $ marker.
- Keep only links and contract addresses that belong to the idea.
- Preserve the order ideas first appeared in the chat.

Return the items as JSON matching the response schema. Return an empty list
if nothing is worth highlighting.`
