package analysis

import (
	"fmt"
	"strings"
)

const analyzeMapTemplate = `Analyze and score the following content across these dimensions: %s

For each dimension:
1. Provide a score from 1 to 10 (where 1 is lowest, 10 is highest)
2. Explain your reasoning with specific examples from the content

Content:
%s

Output format for each dimension:
Dimension: [name]
Score: [1-10]
Reasoning: [detailed explanation]`

const analyzeReduceTemplate = `Below are individual analyses across these dimensions: %s

Combine these analyses to provide:
1. Average scores for each dimension across all items
2. Score distribution insights (highs, lows, patterns)
3. Key themes and patterns identified
4. Aggregate insights for each dimension

Individual Analyses:
%s

Provide a comprehensive dimensional analysis with aggregate scores and insights.`

const summariseMapTemplate = `Analyze the following content across these dimensions: %s

For each dimension, provide insights and key points from this item.

Content:
%s

Provide a structured analysis covering each dimension.`

const summariseReduceTemplate = `Below are analyses of individual content items across these dimensions: %s

Combine these analyses into a comprehensive summary that:
1. Synthesizes insights across all items for each dimension
2. Identifies patterns and trends
3. Provides aggregate insights

Individual Item Analyses:
%s

Create a final dimensional summary.`

const summariseTextTemplate = `You are summarizing the content provided in the variety of dimensions requested. For each dimension, provide a summary that captures the essence of the content with respect to that dimension.

The dimensions to analyze are:

%s

The content to analyze is:

%s

Respond with a JSON object mapping each dimension name to its summary, with no surrounding prose.`

func renderPrompt(template, dimensions, content string) string {
	return fmt.Sprintf(template, dimensions, content)
}

func joinAnalyses(parts []string) string {
	return strings.Join(parts, "\n\n---\n\n")
}
