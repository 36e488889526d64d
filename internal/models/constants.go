package models

const ContextSeparator = "\n"

// EvaluatePromptTemplate demands a bare JSON object so the answer can be
// parsed without consulting the surrounding prose.
const EvaluatePromptTemplate = `You are an expert insurance claim evaluator. Your task is to analyze a user's query against a set of relevant insurance policy clauses and determine if the claim should be approved.

Here are the relevant policy clauses:
---
%s
---

Here is the user's claim query:
---
%s
---

Based *only* on the provided clauses and the user's query, perform the following steps:
1. Evaluate the query against the clauses.
2. Determine a final decision: "Approved" or "Rejected".
3. If approved, state the payout amount or coverage percentage if specified in the clauses. If no amount is specified, use "Not Applicable".
4. Provide a clear justification for your decision by referencing the specific clause(s) used.

Return your final answer as a single, clean JSON object with no other text before or after it. The JSON object must have these exact keys: "decision", "amount", "justification".

Final JSON Response:
`

const AnswerPromptTemplate = `You are a helpful assistant. Answer the user's question using only the given context.

Context:
---
%s
---

Question: %s

Answer:
`

// EmptyAnswer is returned when the model produces no text at all.
const EmptyAnswer = "No answer generated."
