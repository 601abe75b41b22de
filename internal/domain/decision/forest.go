package decision

import (
	"github.com/mediclass/mediclass/internal/domain/exam"
	"github.com/mediclass/mediclass/internal/domain/symptom"
)

func leaf(category, description string, exams ...exam.Type) Suggestion {
	return Suggestion{Category: category, Description: description, Exams: exams}
}

func when(leafSuggestion Suggestion, conditions ...string) branch {
	return branch{conditions: conditions, leaf: leafSuggestion}
}

// forest is the static decision table, one tree per symptom category.
// Branches sharing a leading condition reuse its answer.
var forest = []Tree{
	{Category: symptom.Gastrointestinal, Subgroups: []Subgroup{
		{Index: 1, Label: "Abdominal discomfort", branches: []branch{
			when(leaf("Gastrointestinal", "Possible cholecystitis", exam.AbdominalUltrasound),
				"Post-prandial right upper quadrant pain?"),
		}},
		{Index: 2, Label: "Bowel dysfunction", branches: []branch{
			when(leaf("Gastrointestinal", "Possible infectious gastroenteritis", exam.BloodCount, exam.StoolCulture),
				"Fever + nausea + diarrhea?"),
		}},
		{Index: 3, Label: "Acute pain", branches: []branch{
			when(leaf("Gastrointestinal", "Possible appendicitis", exam.AbdominalUltrasound),
				"Fever?", "Right lower quadrant pain?"),
			when(leaf("Gastrointestinal", "Possible renal calculus", exam.PlainAbdominalXRay),
				"Fever?", "Hypogastric pain?"),
		}},
	}},
	{Category: symptom.Respiratory, Subgroups: []Subgroup{
		{Index: 1, Label: "Acute cough", branches: []branch{
			when(leaf("Respiratory", "Possible pneumonia", exam.ChestXRay),
				"Fever + congestion + unilateral crackles?"),
			when(leaf("Respiratory", "Possible acute bronchitis", exam.SymptomaticManagement),
				"No fever, little sputum?"),
		}},
		{Index: 2, Label: "Dyspnea", branches: []branch{
			when(leaf("Respiratory", "Possible asthma exacerbation", exam.SpirometryOrPEFR),
				"Sudden onset with wheezing and asthma history?"),
		}},
		{Index: 3, Label: "Pleuritic chest pain", branches: []branch{
			when(leaf("Respiratory", "Possible pleuritis", exam.ChestXRay, exam.PleuralUltrasound),
				"Pain on deep breathing + dry cough?"),
		}},
	}},
	{Category: symptom.Cardiovascular, Subgroups: []Subgroup{
		{Index: 1, Label: "Chest pain", branches: []branch{
			when(leaf("Cardiovascular", "Possible AMI", exam.ECG, exam.CardiacMarkers),
				"Oppressive central chest pain radiating to arm or jaw?"),
			when(leaf("Cardiovascular", "Possible unstable angina", exam.StressTest, exam.Perfusion),
				"Pain triggered by exertion, relieved by rest?"),
		}},
		{Index: 2, Label: "Palpitations", branches: []branch{
			when(leaf("Cardiovascular", "Possible supraventricular arrhythmia", exam.ECG),
				"Irregular and fast rhythm?"),
		}},
		{Index: 3, Label: "Dyspnea", branches: []branch{
			when(leaf("Cardiovascular", "Possible heart failure", exam.BNP, exam.Echocardiogram),
				"Dyspnea on minimal exertion + lower-limb edema?"),
		}},
	}},
	{Category: symptom.Trauma, Subgroups: []Subgroup{
		{Index: 1, Label: "Chest trauma", branches: []branch{
			when(leaf("Trauma", "Possible pneumothorax", exam.ChestXRayPALateral),
				"Intense pain + sudden breathing difficulty?"),
		}},
		{Index: 2, Label: "Head trauma", branches: []branch{
			when(leaf("Trauma", "Possible mild TBI", exam.HeadCTIfNeuroChanges),
				"Transient loss of consciousness without focal deficit?"),
		}},
		{Index: 3, Label: "Limb trauma", branches: []branch{
			when(leaf("Trauma", "Possible femur fracture", exam.HipFemurXRay),
				"Localized pain + visible deformity?"),
		}},
		{Index: 4, Label: "Abdominal trauma", branches: []branch{
			when(leaf("Trauma", "Possible hemoperitoneum", exam.FASTUltrasound),
				"Diffuse abdominal pain + signs of peritonitis?"),
		}},
	}},
	{Category: symptom.Dermatologic, Subgroups: []Subgroup{
		{Index: 1, Label: "Single lesion", branches: []branch{
			when(leaf("Dermatologic", "Possible cellulitis", exam.SkinCulture),
				"Warm, painful erythema with poorly defined borders?"),
		}},
		{Index: 2, Label: "Multiple pustular lesions", branches: []branch{
			when(leaf("Dermatologic", "Possible contact dermatitis", exam.PatchTest),
				"Well-demarcated area after contact with a chemical agent?"),
		}},
		{Index: 3, Label: "Pruritic plaques", branches: []branch{
			when(leaf("Dermatologic", "Possible psoriasis", exam.SkinBiopsy),
				"Silvery lesions on elbows or knees?"),
		}},
		{Index: 4, Label: "Urticaria", branches: []branch{
			when(leaf("Dermatologic", "Possible urticaria", exam.ProvocationTest),
				"Pruritic papules that resolve within hours?"),
		}},
	}},
	{Category: symptom.Other, Subgroups: []Subgroup{
		{Index: 1, Label: "Neurological", branches: []branch{
			when(leaf("Neurological", "Possible stroke", exam.UrgentHeadCT),
				"Sudden focal motor or sensory deficit?"),
		}},
		{Index: 2, Label: "Endocrine", branches: []branch{
			when(leaf("Endocrine", "Possible hypoglycemia", exam.Glucose),
				"Improvement after glucose?"),
		}},
		{Index: 3, Label: "Psychiatric", branches: []branch{
			when(leaf("Psychiatric", "Possible panic episode", exam.PsychiatricEvaluation),
				"Tachycardia and fear without apparent cause?"),
		}},
		{Index: 4, Label: "Fever without focus", branches: []branch{
			when(leaf("Other", "Fever of unknown origin", exam.BloodCultures, exam.InflammatoryMarkers, exam.BloodCount),
				"Fever >38°C for more than 3 weeks?"),
		}},
	}},
}
