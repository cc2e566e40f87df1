package types

// CloudWatch metric names and dimensions.
const (
	MetricAssessmentCompleted = "AssessmentCompleted"
	MetricAssessmentFallback  = "AssessmentFallback"
	MetricAlertsPublished     = "AlertsPublished"
	MetricAlertDelivered      = "AlertDelivered"
	MetricAlertDeliveryFailed = "AlertDeliveryFailed"
	MetricAPILatency          = "APILatency"
	MetricHivesReassessed     = "HivesReassessed"

	DimGrade     = "Grade"
	DimRiskLevel = "RiskLevel"
	DimEndpoint  = "Endpoint"
	DimReason    = "Reason"

	MetricNamespace = "HiveWatch"
)
