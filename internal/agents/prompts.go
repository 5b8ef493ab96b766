// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agents

import (
	"fmt"
	"strings"

	"github.com/abdoukaba/Autogen-BIRD/internal/schema"
)

// Every system prompt opens with the same identifier discipline: agents that
// invent table or column names produce SQL that can never execute, and the
// refinement budget is too small to waste on hallucinated schemas.
const identifierRule = "IMPORTANT: You must ONLY use table and column names exactly as shown in the schema below. " +
	"Do NOT invent or guess any table or column names. If a required table/column does not exist, " +
	"explain or return an empty result.\n"

const selectorSystemPrompt = identifierRule + `You are an expert database analyst specialized in identifying relevant schema elements for SQL queries.

Your task is to analyze a question and a database schema, then select ONLY the tables and columns
that are necessary to answer the question. This helps reduce complexity for SQL generation.

Guidelines:
1. Analyze the question carefully to identify entities and relationships needed.
2. Include ALL tables and columns that could be relevant to the question.
3. EXCLUDE tables and columns that are definitely not needed.
4. Consider tables that might be needed for JOINs to connect relevant entities.
5. If in doubt about a table or column, include it rather than exclude it.
6. For questions involving aggregations, include columns needed for grouping and computation.

Output your answer in JSON format:
{
    "tables": [
        {
            "name": "table_name",
            "columns": ["column1", "column2"]
        }
    ]
}

Be concise and only include the JSON output without additional explanations.`

const decomposerSystemPrompt = identifierRule + `You are an expert in SQL query generation. Your task is to convert natural language questions
into SQL queries by using chain-of-thought reasoning.

Follow these steps for each question:

1. ANALYZE THE QUESTION:
   - Identify the main entities and attributes mentioned
   - Determine the operations needed (filtering, joining, aggregation, etc.)
   - Identify any conditions or constraints

2. BREAK DOWN COMPLEX QUESTIONS:
   - For complex questions, decompose them into simpler sub-questions
   - For each sub-question, determine what intermediate results are needed

3. UNDERSTAND THE SCHEMA:
   - Identify the relevant tables for the question
   - Determine the relationships between these tables
   - Identify the columns needed for selection, filtering, and joining

4. GENERATE THE SQL QUERY:
   - Start with simple SELECT, FROM, WHERE clauses
   - Add JOINs to connect related tables
   - Add conditions and filters in the WHERE clause
   - Include GROUP BY and aggregation functions if needed
   - Add HAVING clauses for filtering aggregated results
   - Use ORDER BY for sorting if required
   - Apply LIMIT if the question asks for specific number of results

5. VERIFY THE QUERY:
   - Check that all entities mentioned in the question are represented
   - Ensure all conditions and constraints are included
   - Verify that the query will return the expected result format

Your final answer MUST include the complete SQL query formatted with proper indentation.
Wrap your SQL query in ` + "```sql and ```" + ` tags.`

const refinerSystemPrompt = identifierRule + `You are an expert SQL fixer. Given a database schema, a previous SQL query,
and an error message (if any), generate a corrected SQL query that will execute successfully.
Only return the SQL code in a code block (` + "```sql ... ```" + `).`

func selectorUserPrompt(question string, s *schema.Schema) string {
	return fmt.Sprintf(`Question: %s

Full Database Schema:
%s

Please select only the relevant tables and columns for answering this question.`,
		question, schema.Format(s))
}

func decomposerUserPrompt(question string, s *schema.Schema) string {
	return fmt.Sprintf(`Question: %s

%s

%s

Please generate a SQL query to answer this question. Use step-by-step reasoning.`,
		question, schema.Summary(s), schema.Format(s))
}

// refinerUserPrompt embeds the failing SQL and the engine's error message
// verbatim. With history enabled, every earlier attempt is shown as well so
// the agent can avoid repeating a repair that already failed.
func refinerUserPrompt(question string, s *schema.Schema, attempts []Attempt, history bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n%s\n", question, schema.Summary(s))

	shown := attempts
	if !history && len(attempts) > 1 {
		shown = attempts[len(attempts)-1:]
	}
	if history && len(shown) > 1 {
		for i, a := range shown[:len(shown)-1] {
			fmt.Fprintf(&b, "\nEarlier attempt %d:\n%s\nFailed with: %s\n", i+1, a.SQL, a.ErrMessage)
		}
	}

	last := shown[len(shown)-1]
	fmt.Fprintf(&b, "\nPrevious SQL:\n%s\n\nError Message (if any):\n%s\n", last.SQL, last.ErrMessage)
	b.WriteString("\nPlease refine or fix the SQL query to ensure it runs successfully.")
	return b.String()
}
