package startup

// Stage is the funding stage of a startup.
type Stage string

const (
	StageIdea    Stage = "Idea"
	StageMVP     Stage = "MVP"
	StagePreSeed Stage = "Pre-Seed"
	StageSeed    Stage = "Seed"
)

// Startup is the card investors browse on the dashboard.
type Startup struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Industry         string `json:"industry"`
	Stage            Stage  `json:"stage"`
	Location         string `json:"location"`
	AIScore          int    `json:"aiScore"`
	TeamSize         int    `json:"teamSize"`
	ShortDescription string `json:"shortDescription"`
	LogoURL          string `json:"logoUrl,omitempty"`
}

// Seed provides the mock startups shown on the investor dashboard.
func Seed() []Startup {
	return []Startup{
		{
			ID:               "1",
			Name:             "EcoCharge",
			Industry:         "ClimateTech",
			Stage:            StageSeed,
			Location:         "San Francisco, CA",
			AIScore:          92,
			TeamSize:         5,
			ShortDescription: "Revolutionary EV charging infrastructure using renewable energy sources, reducing charging time by 70%.",
		},
		{
			ID:               "2",
			Name:             "MindfulAI",
			Industry:         "AI",
			Stage:            StagePreSeed,
			Location:         "Boston, MA",
			AIScore:          87,
			TeamSize:         3,
			ShortDescription: "AI-powered mental health platform that predicts and prevents burnout before it happens.",
		},
		{
			ID:               "3",
			Name:             "FarmSense",
			Industry:         "AgTech",
			Stage:            StageMVP,
			Location:         "Austin, TX",
			AIScore:          79,
			TeamSize:         4,
			ShortDescription: "IoT sensors and predictive analytics for small-scale farmers to optimize crop yields and reduce water usage.",
		},
		{
			ID:               "4",
			Name:             "QuantumLeap",
			Industry:         "Fintech",
			Stage:            StageSeed,
			Location:         "New York, NY",
			AIScore:          94,
			TeamSize:         6,
			ShortDescription: "Quantum computing solutions for financial risk modeling, offering 100x speed improvements over traditional methods.",
		},
		{
			ID:               "5",
			Name:             "HealthPulse",
			Industry:         "HealthTech",
			Stage:            StagePreSeed,
			Location:         "Seattle, WA",
			AIScore:          85,
			TeamSize:         4,
			ShortDescription: "Remote patient monitoring platform that uses AI to predict health deterioration 48 hours before clinical signs appear.",
		},
		{
			ID:               "6",
			Name:             "LearnLoop",
			Industry:         "EdTech",
			Stage:            StageMVP,
			Location:         "Chicago, IL",
			AIScore:          76,
			TeamSize:         3,
			ShortDescription: "Adaptive learning platform that personalizes educational content based on individual learning patterns.",
		},
	}
}

// SeedFavorites lists the startups bookmarked by the demo investor.
func SeedFavorites() []string {
	return []string{"1", "4", "5"}
}
