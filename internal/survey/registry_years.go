package survey

var sections2021 = []Section{
	{ID: 1, Title: "Background Information", Fields: []string{
		"email_address", "firm_name", "participant_name", "role_title",
		"team_based", "geographic_focus", "fund_stage", "legal_entity_date",
		"first_close_date", "first_investment_date",
	}},
	{ID: 2, Title: "Investment Thesis & Capital Construct", Fields: []string{
		"investments_march_2020", "investments_december_2020", "optional_supplement",
		"investment_vehicle_type", "current_fund_size", "target_fund_size",
		"investment_timeframe", "business_model_targeted", "business_stage_targeted",
		"financing_needs", "target_capital_sources", "target_irr", "impact_vs_financial_orientation",
		"explicit_lens_focus", "report_sustainable_development_goals", "top_sdgs",
		"gender_considerations_investment", "gender_considerations_requirement",
	}},
	{ID: 3, Title: "Portfolio Construction & Team", Fields: []string{
		"fte_staff_2019", "fte_staff_2020", "fte_staff_2021_est", "principals_count",
		"gender_inclusion", "team_experience_investments", "team_experience_exits",
		"typical_investment_size", "legal_domicile", "currency_investments", "currency_lp_commitments",
		"fund_operations", "fund_expenses", "investment_monetization", "exits_achieved",
	}},
	{ID: 4, Title: "Impact of COVID-19", Fields: []string{
		"covid_impact_aggregate", "covid_impact_portfolio", "covid_government_support",
		"raising_capital_2021", "fund_vehicle_considerations",
	}},
	{ID: 5, Title: "Network Engagement", Fields: []string{
		"network_value_rating", "working_group_participation", "principal_time_commitment",
		"additional_comments",
	}},
}

var sections2022 = []Section{
	{ID: 1, Title: "Organizational Background and Team", Fields: []string{
		"email_address", "organisation_name", "funds_raising_investing", "fund_name",
		"legal_entity_achieved", "first_close_achieved", "first_investment_achieved",
		"geographic_markets", "team_based", "current_ftes", "ye2023_ftes",
		"principals_count", "gender_orientation", "investments_experience", "exits_experience",
	}},
	{ID: 2, Title: "Vehicle's Legal Construct", Fields: []string{
		"legal_domicile", "currency_investments", "currency_lp_commitments",
		"fund_type_status", "current_funds_raised", "current_amount_invested",
		"target_fund_size", "target_investments", "follow_on_permitted", "target_irr",
	}},
	{ID: 3, Title: "Investment Thesis", Fields: []string{
		"business_stages", "enterprise_types", "financing_needs", "sector_activities",
		"financial_instruments", "sdg_targets", "gender_lens_investing",
	}},
	{ID: 4, Title: "Pipeline Sourcing and Portfolio Construction", Fields: []string{
		"pipeline_sourcing", "average_investment_size", "capital_raised",
		"portfolio_count", "exits_count",
	}},
	{ID: 5, Title: "Portfolio Value Creation and Exits", Fields: []string{
		"portfolio_priorities", "technical_assistance", "exit_form",
		"revenue_growth_historical", "revenue_growth_expected",
		"cash_flow_growth_historical", "cash_flow_growth_expected",
	}},
	{ID: 6, Title: "Performance to Date and Current Outlook", Fields: []string{
		"jobs_impact_direct", "jobs_impact_indirect", "fund_priorities",
		"concerns_ranking", "future_research", "one_on_one_meeting", "receive_results",
	}},
}

var sections2023 = []Section{
	{ID: 1, Title: "Introduction & Context", Fields: []string{
		"email_address", "organisation_name", "fund_name", "funds_raising_investing",
		"legal_entity_date", "first_close_date", "first_investment_date",
	}},
	{ID: 2, Title: "Organizational Background and Team", Fields: []string{
		"geographic_markets", "team_based", "fte_staff_2022", "fte_staff_current",
		"fte_staff_2024_est", "principals_count", "gender_inclusion",
		"team_experience_investments", "team_experience_exits",
	}},
	{ID: 3, Title: "Vehicle's Legal Construct", Fields: []string{
		"legal_domicile", "currency_investments", "currency_lp_commitments",
		"fund_operations", "fund_type_status", "current_funds_raised",
		"current_amount_invested", "target_fund_size", "target_investments",
		"follow_on_investment_permitted", "concessionary_capital", "lp_capital_sources",
		"gp_financial_commitment", "gp_management_fee", "hurdle_rate", "target_local_currency_return",
	}},
	{ID: 4, Title: "Investment Thesis", Fields: []string{
		"business_stages", "growth_expectations", "financing_needs",
		"sector_focus", "financial_instruments", "sustainable_development_goals",
		"gender_lens_investing",
	}},
	{ID: 5, Title: "Pipeline Sourcing and Portfolio Construction", Fields: []string{
		"pipeline_sourcing", "average_investment_size", "capital_raised",
		"portfolio_count",
	}},
	{ID: 6, Title: "Portfolio Value Creation and Exits", Fields: []string{
		"portfolio_priorities", "technical_assistance", "exit_form",
		"revenue_growth_historical", "revenue_growth_expected",
		"cash_flow_growth_historical", "cash_flow_growth_expected",
		"jobs_impact_full_time", "jobs_impact_part_time", "jobs_impact_other",
	}},
	{ID: 7, Title: "Performance to Date and Current Outlook", Fields: []string{
		"fund_priorities", "data_sharing_willingness", "survey_sender",
		"investment_monetization", "exits_achieved", "fund_capabilities",
		"covid_government_support", "raising_capital_2024", "fund_vehicle_considerations",
		"network_value_rating", "working_group_participation", "principal_time_commitment",
		"additional_comments",
	}},
}

var sections2024 = []Section{
	{ID: 1, Title: "Introduction & Context", Fields: []string{
		"email_address", "investment_networks", "organisation_name", "funds_raising_investing",
		"fund_name",
	}},
	{ID: 2, Title: "Organizational Background and Team", Fields: []string{
		"legal_entity_achieved", "first_close_achieved", "first_investment_achieved",
		"geographic_markets", "team_based", "fte_staff_2023_actual", "fte_staff_2024_current",
		"fte_staff_2025_forecast", "investment_approval", "investment_monetization_exit_forms",
		"gender_orientation", "investments_experience", "exits_experience",
	}},
	{ID: 3, Title: "Vehicle's Legal Construct", Fields: []string{
		"legal_domicile", "currency_investments", "currency_lp_commitments",
		"fund_type_status", "current_funds_raised", "current_amount_invested",
		"target_fund_size", "target_number_investments", "follow_on_permitted",
		"concessionary_capital", "lp_capital_sources_existing", "lp_capital_sources_target",
		"gp_financial_commitment", "gp_management_fee", "hurdle_rate", "target_return_above_govt_debt",
	}},
	{ID: 4, Title: "Investment Thesis", Fields: []string{
		"fund_stage", "business_development_stage", "financing_needs",
		"sector_target_allocation", "investment_considerations", "financial_instruments_ranking",
		"top_sdgs", "gender_lens_investing", "pipeline_sourcing",
		"average_investment_size_per_company", "capital_raised",
	}},
	{ID: 5, Title: "Portfolio Construction & Value Creation", Fields: []string{
		"portfolio_count", "exits_count", "portfolio_priorities", "technical_assistance",
		"revenue_growth_recent_12_months", "revenue_growth_next_12_months",
		"cash_flow_growth_recent_12_months", "cash_flow_growth_next_12_months",
		"portfolio_performance_other", "direct_jobs_created_cumulative",
		"direct_jobs_expected", "indirect_jobs_created_cumulative", "indirect_jobs_expected",
	}},
	{ID: 6, Title: "Performance to Date and Current Outlook", Fields: []string{
		"fund_priorities_next_12_months", "domestic_factors_concerns", "international_factors_concerns",
		"receive_results", "one_on_one_meeting", "additional_comments",
	}},
}
