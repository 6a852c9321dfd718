package forward

import "github.com/cognicore/chainer/pkg/chainer/logic"

type fixture struct {
	name string
	kb   func() *logic.KnowledgeBase
	goal logic.Predicate
}

func awardKB(withLeadership bool) *logic.KnowledgeBase {
	kb := logic.NewKnowledgeBase()
	mustFact(kb, logic.Pred("HasExcellentPerformance", "P"))
	mustFact(kb, logic.Pred("ParticipatesInCommunityService", "P"))
	if withLeadership {
		mustFact(kb, logic.Pred("DemonstratesLeadership", "P"))
	}

	mustRule(kb, logic.Rule(logic.Pred("AcademicallyQualified", "P"), logic.Pred("HasExcellentPerformance", "P")))
	mustRule(kb, logic.Rule(logic.Pred("CommunityEngaged", "P"), logic.Pred("ParticipatesInCommunityService", "P")))
	mustRule(kb, logic.Rule(logic.Pred("Leader", "P"), logic.Pred("DemonstratesLeadership", "P")))

	// Built with the step-by-step constructors on purpose.
	eligible := logic.NewClause()
	_ = eligible.AddToAntecedent(logic.Pred("AcademicallyQualified", "P"))
	_ = eligible.AddToAntecedent(logic.Pred("CommunityEngaged", "P"))
	_ = eligible.AddToAntecedent(logic.Pred("Leader", "P"))
	_ = eligible.SetConsequent(logic.Pred("EligibleForAward", "P"))
	mustRule(kb, eligible)
	return kb
}

func bijectiveKB() *logic.KnowledgeBase {
	kb := logic.NewKnowledgeBase()
	mustFact(kb, logic.Pred("Distinct", "1", "2"))
	mustFact(kb, logic.Pred("Map", "F", "1", "10"))
	mustFact(kb, logic.Pred("Map", "F", "2", "20"))

	mustRule(kb, logic.Rule(logic.Pred("Injective", "F"),
		logic.Pred("Distinct", "X", "Y"),
		logic.Pred("Map", "F", "X", "Z"),
		logic.Pred("Map", "F", "Y", "Z")))
	mustRule(kb, logic.Rule(logic.Pred("Surjective", "F"), logic.Pred("Map", "F", "X", "Z")))
	mustRule(kb, logic.Rule(logic.Pred("Bijective", "F"), logic.Pred("Injective", "F"), logic.Pred("Surjective", "F")))
	return kb
}

func squeezeKB() *logic.KnowledgeBase {
	kb := logic.NewKnowledgeBase()
	mustFact(kb, logic.Pred("lim", "xn", "a"))
	mustFact(kb, logic.Pred("lim", "zn", "a"))
	mustFact(kb, logic.Pred("MaiMare", "yn", "xn"))
	mustFact(kb, logic.Pred("MaiMare", "zn", "yn"))

	mustRule(kb, logic.Rule(logic.Pred("valoare", "xn", "infinit", "a"), logic.Pred("lim", "xn", "a")))
	mustRule(kb, logic.Rule(logic.Pred("lim", "yn", "a"),
		logic.Pred("MaiMare", "yn", "xn"),
		logic.Pred("MaiMare", "zn", "yn"),
		logic.Pred("valoare", "xn", "infinit", "a"),
		logic.Pred("valoare", "zn", "infinit", "a")))
	mustRule(kb, logic.Rule(logic.Pred("valoare", "zn", "infinit", "a"), logic.Pred("lim", "zn", "a")))
	return kb
}

func pollutionKB() *logic.KnowledgeBase {
	kb := logic.NewKnowledgeBase()
	mustFact(kb, logic.Pred("Emits", "Company", "Pollutant"))
	mustFact(kb, logic.Pred("FoundAtLocation", "Pollutant", "Location"))
	mustFact(kb, logic.Pred("CausesImpact", "Pollutant", "Impact"))
	mustFact(kb, logic.Pred("NegativeImpact", "Impact"))

	mustRule(kb, logic.Rule(logic.Pred("ResponsibleForPollution", "Company", "Location"),
		logic.Pred("Emits", "Company", "Pollutant"),
		logic.Pred("FoundAtLocation", "Pollutant", "Location")))
	mustRule(kb, logic.Rule(logic.Pred("Pollution", "Pollutant"),
		logic.Pred("CausesImpact", "Pollutant", "Impact"),
		logic.Pred("NegativeImpact", "Impact")))
	mustRule(kb, logic.Rule(logic.Pred("GuiltyOfPollution", "Company"),
		logic.Pred("ResponsibleForPollution", "Company", "Location"),
		logic.Pred("Pollution", "Pollutant")))
	return kb
}

func shippedFixtures() []fixture {
	return []fixture{
		{"award", func() *logic.KnowledgeBase { return awardKB(true) }, logic.Pred("EligibleForAward", "P")},
		{"award-without-leadership", func() *logic.KnowledgeBase { return awardKB(false) }, logic.Pred("EligibleForAward", "P")},
		{"bijective", bijectiveKB, logic.Pred("Bijective", "F")},
		{"squeeze", squeezeKB, logic.Pred("lim", "yn", "a")},
		{"pollution", pollutionKB, logic.Pred("GuiltyOfPollution", "Company")},
	}
}

func mustFact(kb *logic.KnowledgeBase, p logic.Predicate) {
	if err := kb.AddFact(p); err != nil {
		panic(err)
	}
}

func mustRule(kb *logic.KnowledgeBase, c *logic.Clause) {
	if err := kb.AddRule(c); err != nil {
		panic(err)
	}
}
