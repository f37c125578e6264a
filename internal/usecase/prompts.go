package usecase

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptSet struct {
	AnalyzeIdea   string `yaml:"analyze_idea"`
	GenerateTasks string `yaml:"generate_tasks"`
	MentorChat    string `yaml:"mentor_chat"`
}

var prompts = mustLoadPrompts()

func mustLoadPrompts() promptSet {
	var p promptSet
	if err := yaml.Unmarshal(promptsYAML, &p); err != nil {
		panic(fmt.Sprintf("prompts.yaml: %v", err))
	}
	return p
}

func analyzeIdeaPrompt(idea, duration string) string {
	return fmt.Sprintf(prompts.AnalyzeIdea, idea, duration)
}

func generateTasksPrompt(projectName string, features []string, duration string, minTasks, maxTasks int) string {
	featureList := "Basic functionality"
	if len(features) > 0 {
		featureList = strings.Join(features, ", ")
	}
	return fmt.Sprintf(prompts.GenerateTasks, projectName, featureList, duration, minTasks, maxTasks)
}

func mentorChatPrompt(chatContext, question string) string {
	return fmt.Sprintf(prompts.MentorChat, chatContext, question)
}
