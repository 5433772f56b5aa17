package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "etsy-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "etsy-recording",
					Rules: []Rule{
						{
							Record: "etsy:http_requests:rate5m",
							Expr:   `sum(rate(etsy_http_requests_total[5m]))`,
						},
						{
							Record: "etsy:http_errors:rate5m",
							Expr:   `sum(rate(etsy_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "etsy:api_requests:rate5m",
							Expr:   `sum by (status) (rate(etsy_api_requests_total[5m]))`,
						},
						{
							Record: "etsy:api_errors:rate5m",
							Expr:   `sum(rate(etsy_api_requests_total{status=~"5..|error"}[5m]))`,
						},
						{
							Record: "etsy:token_refresh_failures:rate5m",
							Expr:   `sum(rate(etsy_token_refreshes_total{outcome="failure"}[5m]))`,
						},
						{
							Record: "etsy:token_expires_in:seconds",
							Expr:   `etsy_token_expiry_timestamp_seconds - time()`,
						},
					},
				},
			},
		},
	}
}
