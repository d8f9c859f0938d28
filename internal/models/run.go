package models

import "time"

// RunStanding 一个分组在报表中的总扣分与排名
type RunStanding struct {
	Kind        string `json:"kind"`
	Apartment   int    `json:"apartment"`
	Label       string `json:"label"`
	Total       int    `json:"total"`
	Rank        int    `json:"rank"`
	Rows        int    `json:"rows"`
	Placeholder bool   `json:"placeholder"`
}

// RunSummary 一次报表生成的结果摘要（归档与通知使用）
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	Output      string        `json:"output"`
	ReportDate  string        `json:"report_date"`
	RankMode    string        `json:"rank_mode"`
	Records     int           `json:"records"`
	Unmatched   int           `json:"unmatched"`
	Rows        int           `json:"rows"`
	GeneratedAt time.Time     `json:"generated_at"`
	Standings   []RunStanding `json:"standings"`
}
