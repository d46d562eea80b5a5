package vultr

import (
	"context"
	"net/url"
	"strings"
)

// MinWindowsRAM is the smallest plan (MB) that runs Windows Server and a terminal.
const MinWindowsRAM = 2048

// Defaults used when a provision request leaves fields empty.
const (
	DefaultRegion = "ewr"
	DefaultPlan   = "vc2-1c-2gb"
	DefaultOSID   = 1713
)

// RecommendedPlan is a curated plan shown to operators.
type RecommendedPlan struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// RecommendedRegion is a curated region shown to operators.
type RecommendedRegion struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Latency string `json:"latency"`
}

// RecommendedPlans are the plans suggested for a single terminal with one EA.
var RecommendedPlans = map[string]RecommendedPlan{
	"basic":       {ID: "vc2-1c-2gb", Name: "Basic", Description: "1 vCPU, 2GB RAM - Good for 1-2 EAs", MonthlyCost: 24},
	"standard":    {ID: "vc2-2c-4gb", Name: "Standard", Description: "2 vCPU, 4GB RAM - Good for 3-5 EAs", MonthlyCost: 48},
	"performance": {ID: "vhf-1c-2gb", Name: "High Frequency", Description: "1 vCPU, 2GB RAM, NVMe - Fast execution", MonthlyCost: 30},
}

// RecommendedRegions are close to the major broker datacenters.
var RecommendedRegions = []RecommendedRegion{
	{ID: "ewr", Name: "New Jersey", Country: "US", Latency: "Low latency to US brokers"},
	{ID: "ord", Name: "Chicago", Country: "US", Latency: "Central US"},
	{ID: "lhr", Name: "London", Country: "UK", Latency: "Low latency to EU brokers"},
	{ID: "fra", Name: "Frankfurt", Country: "DE", Latency: "Central EU"},
	{ID: "ams", Name: "Amsterdam", Country: "NL", Latency: "Western EU"},
	{ID: "sgp", Name: "Singapore", Country: "SG", Latency: "Asia Pacific"},
	{ID: "nrt", Name: "Tokyo", Country: "JP", Latency: "East Asia"},
}

// WindowsOS maps a short name to the Vultr image id.
var WindowsOS = map[string]int{
	"windows-2022": 1713,
	"windows-2019": 1404,
	"windows-2016": 240,
}

// GetAccount returns the billing summary.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var resp struct {
		Account Account `json:"account"`
	}
	if err := c.get(ctx, "/account", &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// ListRegions lists datacenter regions.
func (c *Client) ListRegions(ctx context.Context) ([]Region, error) {
	var resp struct {
		Regions []Region `json:"regions"`
	}
	if err := c.get(ctx, "/regions", &resp); err != nil {
		return nil, err
	}
	return resp.Regions, nil
}

// ListPlans lists plans of the given type ("all" when empty).
func (c *Client) ListPlans(ctx context.Context, planType string) ([]Plan, error) {
	if planType == "" {
		planType = "all"
	}
	var resp struct {
		Plans []Plan `json:"plans"`
	}
	if err := c.get(ctx, "/plans?type="+url.QueryEscape(planType), &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

// ListWindowsPlans lists plans large enough for Windows.
func (c *Client) ListWindowsPlans(ctx context.Context) ([]Plan, error) {
	plans, err := c.ListPlans(ctx, "all")
	if err != nil {
		return nil, err
	}
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		if p.RAM >= MinWindowsRAM {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListOS lists installable images.
func (c *Client) ListOS(ctx context.Context) ([]OS, error) {
	var resp struct {
		OS []OS `json:"os"`
	}
	if err := c.get(ctx, "/os", &resp); err != nil {
		return nil, err
	}
	return resp.OS, nil
}

// ListWindowsOS lists the windows family images.
func (c *Client) ListWindowsOS(ctx context.Context) ([]OS, error) {
	all, err := c.ListOS(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OS, 0, len(all))
	for _, o := range all {
		if strings.EqualFold(o.Family, "windows") {
			out = append(out, o)
		}
	}
	return out, nil
}
