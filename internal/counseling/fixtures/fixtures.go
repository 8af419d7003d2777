// Package fixtures holds a small cutoff corpus shared by counseling tests.
package fixtures

import "seatsathi-workers/internal/models"

// Colleges returns a fresh copy of the sample corpus on every call.
func Colleges() map[string]models.RawCollege {
	return map[string]models.RawCollege{
		"E005": {Code: "E005", Name: "R V College of Engineering Bangalore", Branches: map[string]models.BranchRecord{
			"Computer Science and Engineering": {
				"2025": {"R1": {"GM": 300, "2AG": 450}, "R2": {"GM": 350}},
				"2024": {"R1": {"GM": 280}},
			},
			"Artificial Intelligence and Machine Learning": {
				"2025": {"R1": {"GM": 500}},
				"2024": {"R1": {"GM": 450}},
			},
			"Mechanical Engineering": {
				"2025": {"R1": {"GM": 9000}},
				"2024": {"R1": {"GM": 8500}},
			},
		}},
		"E009": {Code: "E009", Name: "PES University Bangalore", Branches: map[string]models.BranchRecord{
			"Computer Science and Engineering": {
				"2025": {"R1": {"GM": 1500}},
				"2024": {"R1": {"GM": 1400}},
			},
			"Electronics and Communication Engineering": {
				"2025": {"R1": {"GM": 3000}},
			},
		}},
		"E016": {Code: "E016", Name: "Siddaganga Institute of Technology Tumakuru", Branches: map[string]models.BranchRecord{
			"Computer Science and Engineering": {
				"2025": {"R1": {"GM": 8000, "SCG": 30000}},
				"2024": {"R1": {"GM": 7500}},
			},
			"Civil Engineering": {
				"2025": {"R1": {"GM": 40000}},
			},
		}},
		"E022": {Code: "E022", Name: "The National Institute of Engineering Mysore", Branches: map[string]models.BranchRecord{
			"Computer Science and Engineering": {
				"2025": {"R1": {"GM": 5000}},
				"2024": {"R1": {"GM": 5200}},
			},
			"CS Computer Science": {
				"2025": {"R1": {"GM": 6000}},
				"2024": {"R1": {"GM": 5800}},
			},
			"Information Science and Engineering": {
				"2025": {"R1": {"GM": 9000}},
			},
		}},
		"E285": {Code: "E285", Name: "RV University Bangalore", Branches: map[string]models.BranchRecord{
			"Computer Science and Engineering (Data Science)": {
				"2025": {"R1": {"GM": 4000}},
			},
		}},
	}
}

// Entries is the number of positive ranks in Colleges.
const Entries = 21
