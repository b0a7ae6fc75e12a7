package report

// Section and field labels per report language. The zh set mirrors the
// en set key for key; renderers look labels up by key only, so adding a
// language is adding a map.
var labels = map[string]map[string]string{
	"en": {
		"authors":                  "Authors",
		"keywords":                 "Keywords",
		"summary":                  "Summary",
		"research_background":      "Research Background",
		"research_field":           "Research Field",
		"problem":                  "Problem",
		"motivation":               "Motivation",
		"existing_limitations":     "Existing Limitations",
		"technical_method":         "Technical Method",
		"model_type":               "Model Type",
		"application_scenarios":    "Application Scenarios",
		"method_overview":          "Method Overview",
		"innovations":              "Innovations",
		"key_designs":              "Key Designs",
		"architecture":             "Architecture",
		"experiments":              "Experiments",
		"datasets":                 "Datasets",
		"metrics":                  "Metrics",
		"baselines":                "Baselines",
		"setup":                    "Setup",
		"ablation_studies":         "Ablation Studies",
		"results":                  "Results",
		"main_results":             "Main Results",
		"performance_improvements": "Performance Improvements",
		"key_findings":             "Key Findings",
		"limitations":              "Limitations",
		"future_work":              "Future Work",
		"comparison_title":         "Paper Comparison Analysis",
		"trend_title":              "Technology Trend Analysis",
		"custom_title":             "Custom Analysis",
		"papers_analyzed":          "Papers Analyzed",
		"overall_summary":          "Overall Summary",
		"comparison_matrix":        "Comparison Matrix",
		"paper":                    "Paper",
		"description":              "Description",
		"common_themes":            "Common Themes",
		"key_differences":          "Key Differences",
		"individual_summaries":     "Individual Paper Summaries",
		"technology_timeline":      "Technology Timeline",
		"identified_trends":        "Identified Trends",
		"evidence":                 "Evidence",
		"analysis":                 "Analysis",
		"key_resources":            "Key Resources",
		"key_figures":              "Key Figures",
		"key_tables":               "Key Tables",
		"key_equations":            "Key Equations",
	},
	"zh": {
		"authors":                  "作者",
		"keywords":                 "关键词",
		"summary":                  "摘要",
		"research_background":      "研究背景",
		"research_field":           "研究领域",
		"problem":                  "问题定义",
		"motivation":               "研究动机",
		"existing_limitations":     "现有方法的局限性",
		"technical_method":         "技术方法",
		"model_type":               "模型类型",
		"application_scenarios":    "应用场景",
		"method_overview":          "方法概述",
		"innovations":              "创新点",
		"key_designs":              "关键设计",
		"architecture":             "架构",
		"experiments":              "实验",
		"datasets":                 "数据集",
		"metrics":                  "评估指标",
		"baselines":                "基线方法",
		"setup":                    "实验设置",
		"ablation_studies":         "消融实验",
		"results":                  "结果",
		"main_results":             "主要结果",
		"performance_improvements": "性能提升",
		"key_findings":             "主要发现",
		"limitations":              "局限性",
		"future_work":              "未来工作",
		"comparison_title":         "论文对比分析",
		"trend_title":              "技术趋势分析",
		"custom_title":             "自定义分析",
		"papers_analyzed":          "分析的论文",
		"overall_summary":          "总体概述",
		"comparison_matrix":        "对比矩阵",
		"paper":                    "论文",
		"description":              "描述",
		"common_themes":            "共同主题",
		"key_differences":          "关键差异",
		"individual_summaries":     "各论文摘要",
		"technology_timeline":      "技术时间线",
		"identified_trends":        "识别的趋势",
		"evidence":                 "证据",
		"analysis":                 "分析",
		"key_resources":            "关键资源",
		"key_figures":              "关键图表",
		"key_tables":               "关键表格",
		"key_equations":            "关键公式",
	},
}

// normalizeLanguage maps configured language names onto label-set keys.
func normalizeLanguage(lang string) string {
	switch lang {
	case "zh", "chinese", "zh-cn", "zh_cn":
		return "zh"
	default:
		return "en"
	}
}
