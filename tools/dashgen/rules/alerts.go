package rules

// AlertRules returns a PrometheusRule CR containing alert rules for the
// token keep-alive server.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "etsy-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "etsy-alerts",
					Rules: []Rule{
						{
							Alert: "EtsyKeepaliveDown",
							Expr:  `absent(up{job="etsy-keepalive"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Etsy token keep-alive is down",
								"description": "The etsy-keepalive job has been absent for more than 2 minutes. Stored tokens are not being refreshed.",
							},
						},
						{
							Alert: "EtsyKeepaliveNotReady",
							Expr:  `etsy_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Etsy keep-alive cannot reach its token store",
								"description": "The readiness probe has been failing for more than 2 minutes.",
							},
						},
						{
							Alert: "EtsyTokenRefreshFailing",
							Expr:  `etsy:token_refresh_failures:rate5m > 0`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Etsy token refreshes are failing",
								"description": "Scheduled token refreshes have been failing for more than 15 minutes.",
							},
						},
						{
							Alert: "EtsyTokenExpired",
							Expr:  `etsy:token_expires_in:seconds < 0`,
							For:   "10m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Etsy access token for {{ $labels.profile }} has expired",
								"description": "The stored token has been expired for 10 minutes. Run `etsyctl auth login --profile {{ $labels.profile }}` if refreshes keep failing.",
							},
						},
						{
							Alert: "EtsyAPIErrors",
							Expr:  `etsy:api_errors:rate5m / sum(etsy:api_requests:rate5m) > 0.1`,
							For:   "10m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Elevated Etsy API error rate",
								"description": "More than 10% of Etsy API calls failed or returned 5xx over the last 10 minutes.",
							},
						},
						{
							Alert: "EtsyNotificationFailures",
							Expr:  `increase(etsy_notifications_total{outcome="failed"}[15m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Refresh failure notifications are not being delivered",
								"description": "One or more Discord webhook deliveries failed in the last 15 minutes.",
							},
						},
					},
				},
			},
		},
	}
}
