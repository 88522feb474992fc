package models

import "time"

// BeachRecord holds the scraped data for a single beach merged with its enrichment.
type BeachRecord struct {
	ID             string
	Key            string
	Name           string
	Municipality   string
	WaterBody      string
	RegionID       string
	RegionName     string
	Rating         string
	LastSampleDate string
	Link           string
	Image          string
	FirstScrapedAt time.Time
	LastScrapedAt  time.Time
}

// Region is an administrative region listed on the source index page.
type Region struct {
	ID   string
	Name string
}

// RawRow is one row of a region table, in the source column order.
type RawRow struct {
	Municipality   string
	BeachName      string
	WaterBody      string
	Rating         string
	LastSampleDate string
}

// LinkResult is the top web result for a beach query.
type LinkResult struct {
	URL     string
	Title   string
	Snippet string
}

// ImageResult is the first reachable image candidate for a beach query.
type ImageResult struct {
	URL string
}
