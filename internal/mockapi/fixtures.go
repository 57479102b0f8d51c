package mockapi

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kalambet/talentflow/internal/hiring"
)

var (
	fixtureTitles = []string{
		"Senior Frontend Developer", "Full Stack Engineer", "React Developer",
		"Node.js Developer", "Python Developer", "DevOps Engineer", "UI/UX Designer",
		"Product Manager", "Data Scientist", "Machine Learning Engineer",
		"Backend Developer", "Mobile App Developer", "QA Engineer", "Technical Lead",
		"Software Architect", "Cloud Engineer", "Security Engineer",
		"Database Administrator", "System Administrator", "Business Analyst",
		"Project Manager", "Scrum Master", "Technical Writer", "Sales Engineer",
		"Customer Success Manager",
	}

	fixtureNames = []string{
		"Alex Johnson", "Sarah Chen", "Michael Rodriguez", "Emily Davis", "David Kim",
		"Lisa Wang", "James Brown", "Maria Garcia", "Robert Taylor", "Jennifer Lee",
		"Christopher Wilson", "Amanda Martinez", "Daniel Anderson", "Jessica Thompson",
		"Matthew White", "Ashley Jackson", "Andrew Harris", "Stephanie Clark",
		"Ryan Lewis", "Nicole Walker", "Kevin Hall", "Rachel Green", "Brandon Adams",
		"Samantha Turner", "Justin Scott",
	}

	fixtureTags = []string{
		"remote", "full-time", "part-time", "contract", "senior", "junior",
		"mid-level", "frontend", "backend", "full-stack", "react", "node", "python",
		"javascript", "typescript", "aws", "docker", "kubernetes", "agile",
		"startup", "enterprise",
	}

	behavioralPrompts = []string{
		"solve a complex problem",
		"work with a difficult team member",
		"learn a new technology quickly",
		"meet a tight deadline",
	}
)

type fixture struct {
	rng *rand.Rand
	now time.Time
}

func newFixture(seed uint64, now time.Time) *fixture {
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	return &fixture{rng: rand.New(rand.NewPCG(seed, seed>>1)), now: now}
}

func (f *fixture) jobs(n int) []hiring.Job {
	used := make(map[string]bool, n)
	jobs := make([]hiring.Job, 0, n)
	for i := range n {
		title := fixtureTitles[i%len(fixtureTitles)]
		if round := i / len(fixtureTitles); round > 0 {
			title = fmt.Sprintf("%s %d", title, round+1)
		}
		slug := hiring.Slugify(title)
		if used[slug] {
			slug = fmt.Sprintf("%s-%d", slug, i)
		}
		used[slug] = true

		status := hiring.JobActive
		if f.rng.Float64() < 0.3 {
			status = hiring.JobArchived
		}
		start := i % 5
		jobs = append(jobs, hiring.Job{
			ID:        int64(i + 1),
			Title:     title,
			Slug:      slug,
			Status:    status,
			Tags:      append([]string{}, fixtureTags[start:start+3]...),
			Order:     i + 1,
			CreatedAt: f.now.Add(-time.Duration(i) * time.Hour),
		})
	}
	return jobs
}

func (f *fixture) candidates(n int, jobs []hiring.Job) []hiring.Candidate {
	if len(jobs) == 0 {
		return nil
	}
	const month = 30 * 24 * time.Hour
	out := make([]hiring.Candidate, 0, n)
	for i := range n {
		first, last, _ := strings.Cut(fixtureNames[i%len(fixtureNames)], " ")
		name := first + " " + last
		email := strings.ToLower(first + "." + last)
		if round := i / len(fixtureNames); round > 0 {
			name = fmt.Sprintf("%s %d", name, round+1)
			email = fmt.Sprintf("%s%d", email, round+1)
		}
		out = append(out, hiring.Candidate{
			ID:        int64(i + 1),
			Name:      name,
			Email:     email + "@email.com",
			JobID:     jobs[f.rng.IntN(len(jobs))].ID,
			Stage:     hiring.Stages[f.rng.IntN(len(hiring.Stages))],
			CreatedAt: f.now.Add(-time.Duration(f.rng.Int64N(int64(month)))).Truncate(time.Second),
		})
	}
	return out
}

// assessments builds one two-section assessment for each of the first n jobs.
// The file-upload question is shown only to candidates who picked React.
func (f *fixture) assessments(n int, jobs []hiring.Job) []hiring.Assessment {
	n = min(n, len(jobs))
	out := make([]hiring.Assessment, 0, n)
	for i := range n {
		technical := make([]hiring.Question, 0, 8)
		for k := range 8 {
			q := technicalQuestion(k % 6)
			q.ID = fmt.Sprintf("job%d-q%d", i, k)
			q.Required = k < 3
			if k == 5 {
				q.Conditional = &hiring.Rule{
					DependsOn: fmt.Sprintf("job%d-q3", i),
					Condition: hiring.CondIncludes,
					Value:     "React",
				}
			}
			technical = append(technical, q)
		}

		behavioral := make([]hiring.Question, 0, len(behavioralPrompts))
		for k, prompt := range behavioralPrompts {
			behavioral = append(behavioral, hiring.Question{
				ID:        fmt.Sprintf("job%d-q%d", i, k+8),
				Type:      hiring.LongText,
				Label:     "Describe a time when you had to " + prompt,
				Required:  true,
				MaxLength: 1000,
			})
		}

		out = append(out, hiring.Assessment{
			ID:    int64(i + 1),
			JobID: jobs[i].ID,
			Sections: []hiring.Section{
				{ID: fmt.Sprintf("section-%d-1", i), Title: "Technical Skills", Questions: technical},
				{ID: fmt.Sprintf("section-%d-2", i), Title: "Behavioral Questions", Questions: behavioral},
			},
		})
	}
	return out
}

func technicalQuestion(kind int) hiring.Question {
	switch kind {
	case 0:
		return hiring.Question{Type: hiring.ShortText, Label: "What is your experience with this technology?", MaxLength: 500}
	case 1:
		return hiring.Question{Type: hiring.LongText, Label: "Describe a challenging project you worked on", MaxLength: 500}
	case 2:
		return hiring.Question{Type: hiring.SingleChoice, Label: "How many years of experience do you have?",
			Options: []string{"0-1", "2-3", "4-5", "5+"}}
	case 3:
		return hiring.Question{Type: hiring.MultiChoice, Label: "Which technologies are you familiar with?",
			Options: []string{"React", "Vue", "Angular", "Node.js", "Python", "Java"}}
	case 4:
		lo, hi := 1.0, 10.0
		return hiring.Question{Type: hiring.Numeric, Label: "Rate your proficiency (1-10)", Min: &lo, Max: &hi}
	default:
		return hiring.Question{Type: hiring.FileUpload, Label: "Upload your portfolio or resume"}
	}
}
