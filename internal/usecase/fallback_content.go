package usecase

import "github.com/hackmate/hackmate-ai/internal/domain"

// Deterministic canned content substituted when the AI pipeline fails for the
// structured intents. Conversational replies never fall back; a fabricated
// mentor answer would be worse than an explicit error.

func fallbackIdeaAnalysis() domain.IdeaAnalysis {
	return domain.IdeaAnalysis{
		ProblemStatement:     "This project aims to solve a specific problem during the hackathon timeframe.",
		TargetUsers:          []string{"Hackathon participants", "General users"},
		Features:             []string{"Core functionality", "User interface", "Basic features"},
		Risks:                []string{"Time constraints", "Technical complexity"},
		TechStackSuggestions: []string{"JavaScript", "React", "Node.js"},
	}
}

func fallbackTaskDrafts() []map[string]any {
	return []map[string]any{
		{"title": "Set up project structure", "description": "Initialize the project with basic folder structure", "effort": "Low"},
		{"title": "Design user interface", "description": "Create wireframes and basic UI components", "effort": "Medium"},
		{"title": "Implement core functionality", "description": "Build the main features of the application", "effort": "High"},
		{"title": "Add styling and polish", "description": "Improve the visual design and user experience", "effort": "Medium"},
		{"title": "Test and debug", "description": "Fix bugs and ensure everything works properly", "effort": "Medium"},
		{"title": "Prepare presentation", "description": "Create demo and presentation materials", "effort": "Low"},
	}
}
