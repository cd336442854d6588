package planner

const plannerInstructions = `For the given objective, come up with a simple step by step plan. This plan should involve individual tool invocations, that if executed correctly will yield the correct answer. Do not add any superfluous steps. The result of the final step should be the final answer. Make sure that each step has all the information needed - do not skip steps. This plan should be about the information you need to gather and the actions you must perform to get the answer.

Respond with a single JSON document and nothing else:

{"action": {"type": "plan", "steps": [{"tool": "<tool name>", "intent": "<what this step achieves>", "args": {<tool arguments>}}]}}

Each step must name one of the available tools. To pass a previously gathered result as an argument, reference its shared-data key as the string "shared:<key>"; to pass several results, use a list of such references.`

const replannerInstructions = `For the given objective, come up with a simple step by step plan. This plan should involve individual tool invocations, that if executed correctly will yield the correct answer. Do not add any superfluous steps. The result of the final step should be the final answer and should answer the users question directly on its own.

Make sure that each step has all the information needed - do not skip steps.

Update your plan accordingly. You have two options:

1. If you have enough information to fully answer the user's question with a comprehensive response, respond with:
{"action": {"type": "respond", "response": "<the final answer>"}}

2. If you still need to gather more information or perform additional analysis, respond with the remaining steps:
{"action": {"type": "plan", "steps": [{"tool": "<tool name>", "intent": "<what this step achieves>", "args": {<tool arguments>}}]}}

Only respond with a complete, thorough answer that answers the users question directly on its own. Otherwise, continue with a plan. Only add steps that still NEED to be done. Do not return previously done steps as part of the plan. Respond with a single JSON document and nothing else.`

const routerInstructions = `Classify the user's query to the toolset best suited to answer it.

Toolsets:
- "tickets": questions about issues, tickets, bugs, sprints, backlogs or anything living in an issue tracker.
- "source": questions about commits, pull requests, branches, code changes or anything living in a source repository.

Respond with a single JSON document and nothing else:

{"toolset": "tickets" | "source", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}`
