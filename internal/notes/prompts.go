package notes

// System prompts for the summarization steps. The note body is generated
// first; key points, action items and decisions are extracted in follow-up
// calls so each list stays focused.

const systemPromptStandard = `You are a professional meeting minutes assistant. Based on the provided meeting transcript, generate a structured meeting summary.

Requirements:
1. Extract the key information, discussion points and decisions
2. Identify action items with owners and deadlines when present
3. Summarize the main conclusions and the next steps
4. Keep the tone objective, concise and professional

Use the following format:

# Meeting Summary

## Overview
[topic and participants when identifiable]

## Discussion Points
[main discussion content]

## Decisions
[important decisions made in the meeting]

## Action Items
[specific tasks with owner and deadline when present]

## Next Steps
[follow-up plans]`

const systemPromptBrief = `You are a professional meeting minutes assistant. Summarize the provided meeting transcript in at most five short paragraphs: what was discussed, what was decided, and what happens next. Keep it objective and concise.`

const promptKeyPoints = `Extract the 3-5 most important key points from the following meeting transcript. One sentence per point, one point per line, no numbering.`

const promptActionItems = `Extract every action item from the following meeting transcript, including the task, its owner and deadline when present. One item per line, no numbering. Reply with an empty string when there are none.`

const promptDecisions = `Extract every decision made in the following meeting transcript. One decision per line, no numbering. Reply with an empty string when there are none.`

func systemPromptFor(template string) string {
	if template == "brief" {
		return systemPromptBrief
	}
	return systemPromptStandard
}
