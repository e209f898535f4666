package conversation

import "wfmassist/internal/domain"

// Script is one fixed alert message body with its follow-up action labels.
type Script struct {
	Body    string
	Actions []string
}

// WelcomeText is the startup greeting.
const WelcomeText = "👋 **WFM AI Assistant Ready**\n" +
	"\n" +
	"I'm monitoring your subscription business operations in real-time. I'll proactively alert you to:\n" +
	"\n" +
	"• Billing & payment issues affecting retention\n" +
	"• Churn risks and intervention opportunities\n" +
	"• AI vs human handling optimization\n" +
	"• Service level impacts across all queues\n" +
	"\n" +
	"Currently tracking 4 specialized queues with 45 active agents + AI automation. Monitoring 12,847 active subscribers. 🟢"

var alertScripts = map[domain.AlertKind]Script{
	domain.AlertBillingSpike: {
		Body: "🚨 **BILLING QUEUE ALERT** - Payment Failure Surge\n" +
			"\n" +
			"📊 **Current Situation:**\n" +
			"- Billing queue volume up 67% vs forecast\n" +
			"- 89% of contacts related to failed auto-renewals\n" +
			"- Customer churn risk: HIGH (23 cancellation requests in last hour)\n" +
			"\n" +
			"🔍 **Root Cause Analysis:**\n" +
			"- Payment processor experiencing 15% higher decline rates\n" +
			"- Expired credit cards affecting 156 subscribers\n" +
			"- Bank authentication timeouts reported\n" +
			"\n" +
			"💡 **Recommended Actions:**\n" +
			"1. **Proactive outreach** - Email customers about payment updates\n" +
			"2. **Temporary grace period** - Extend service by 48 hours\n" +
			"3. **Escalate to Payment Ops** - investigate processor issues\n" +
			"\n" +
			"This could prevent 50+ cancellations. Should I initiate the retention protocol?",
		Actions: []string{"Start Retention Protocol", "Escalate to Payment Ops", "Send Customer Emails", "View Churn Analytics"},
	},
	domain.AlertAIPerformance: {
		Body: "📈 **AI AGENT PERFORMANCE UPDATE**\n" +
			"\n" +
			"🤖 **AI Handling Metrics (Last Hour):**\n" +
			"- **Resolution Rate:** 78% (up from 72% yesterday)\n" +
			"- **Escalation Rate:** 22% (mainly billing disputes)\n" +
			"- **Customer Satisfaction:** 4.1/5.0\n" +
			"- **Average Handle Time:** 2.3 minutes\n" +
			"\n" +
			"✅ **Top AI Successes:**\n" +
			"- Subscription modifications: 94% automated\n" +
			"- Password resets: 98% automated\n" +
			"- Plan comparisons: 89% automated\n" +
			"\n" +
			"⚠️ **Areas for Human Handoff:**\n" +
			"- Billing disputes over $100\n" +
			"- Cancellation saves (retention specialist needed)\n" +
			"- Technical integration issues\n" +
			"\n" +
			"Shall I adjust AI routing rules to capture more upgrade opportunities?",
		Actions: []string{"Update AI Rules", "Review Escalation Triggers", "Analyze Conversation Logs", "Schedule Training Update"},
	},
	domain.AlertChurn: {
		Body: "🚩 **CHURN RISK ALERT** - Retention Opportunity\n" +
			"\n" +
			"📊 **High-Value Customer at Risk:**\n" +
			"- Customer: Enterprise Plan ($2,400/year)\n" +
			"- Tenure: 18 months\n" +
			"- Recent activity: 3 billing support contacts\n" +
			"- Churn probability: 78%\n" +
			"\n" +
			"🎯 **Intervention Strategy:**\n" +
			"1. **Immediate**: Senior customer success manager contact\n" +
			"2. **Offer**: 3-month discount + dedicated support\n" +
			"3. **Timeline**: Customer indicated decision by Friday\n" +
			"\n" +
			"💰 **Impact Analysis:**\n" +
			"- Potential revenue loss: $2,400/year\n" +
			"- Replacement cost: $1,200 (marketing + sales)\n" +
			"- Total impact: $3,600\n" +
			"\n" +
			"Shall I create the retention case and assign to Sarah (CSM)?",
		Actions: []string{"Create Retention Case", "Schedule Executive Call", "Prepare Custom Offer", "Send to CSM Queue"},
	},
	domain.AlertReportGeneration: {
		Body: "📊 **HOURLY SUBSCRIPTION METRICS REPORT**\n" +
			"\n" +
			"**Contact Volume Breakdown:**\n" +
			"- Total Contacts: 685 (63% human, 37% AI handled)\n" +
			"- Cancellations: 137 (⚠️ +15% vs forecast)\n" +
			"- Upgrades: 124 (✅ +8% vs forecast)\n" +
			"- Billing Issues: 189 (🔴 +45% vs forecast)\n" +
			"\n" +
			"**Revenue Impact:**\n" +
			"- New MRR: +$12,450\n" +
			"- Churn MRR: -$8,920\n" +
			"- Net MRR: +$3,530\n" +
			"\n" +
			"**Key Insights:**\n" +
			"- AI deflection saving ~4.2 FTE hours\n" +
			"- Billing issues correlate with payment processor problems\n" +
			"- Upgrade conversion rate: 23% (above target)\n" +
			"\n" +
			"Shall I deep-dive into the billing issue root cause?",
		Actions: []string{"Analyze Billing Issues", "Export Detailed Report", "Schedule Stakeholder Review", "Create Action Items"},
	},
}

var confirmationBodies = map[Action]string{
	ActionStartRetentionProtocol: "✅ **Retention Protocol Activated**\n" +
		"\n" +
		"📧 **Actions Initiated:**\n" +
		"- Proactive emails sent to 156 customers with payment issues\n" +
		"- 48-hour service extension applied automatically\n" +
		"- Customer success team alerted to high-value accounts at risk\n" +
		"\n" +
		"📊 **Expected Outcome:**\n" +
		"- Projected churn reduction: 40-60%\n" +
		"- Revenue protected: ~$47,000 MRR\n" +
		"- Follow-up calls scheduled for Monday",
	ActionEscalatePaymentOps: "🚀 **Payment Operations Escalated**\n" +
		"\n" +
		"📞 **Team Notified:**\n" +
		"- Payment Gateway Team Lead: Sarah Chen\n" +
		"- Banking Relations Manager: Mike Torres\n" +
		"- Customer Communications: Lisa Wang\n" +
		"\n" +
		"⏱️ **SLA Timeline:**\n" +
		"- Initial assessment: 30 minutes\n" +
		"- Customer communication: 60 minutes\n" +
		"- Resolution target: 4 hours\n" +
		"\n" +
		"🔄 **Next Steps:** Real-time monitoring dashboard activated for payment success rates.",
	ActionCreateRetentionCase: "📋 **High-Priority Retention Case Created**\n" +
		"\n" +
		"🎯 **Case Details:**\n" +
		"- Case ID: RET-2024-1847\n" +
		"- Assigned to: Sarah Martinez (Senior CSM)\n" +
		"- Priority: URGENT (Enterprise Customer)\n" +
		"- Auto-scheduled: Executive call within 2 hours\n" +
		"\n" +
		"💰 **Retention Package Prepared:**\n" +
		"- 25% discount for 6 months\n" +
		"- Dedicated technical support\n" +
		"- Quarterly business reviews\n" +
		"\n" +
		"📅 **Timeline:** Customer expects decision by Friday 5 PM.",
	ActionUpdateAIRules: "🤖 **AI Routing Rules Updated**\n" +
		"\n" +
		"⚙️ **Configuration Changes:**\n" +
		"- Upgraded routing confidence threshold to 85%\n" +
		"- Added billing dispute escalation triggers\n" +
		"- Enhanced subscription modification workflows\n" +
		"\n" +
		"📈 **Expected Impact:**\n" +
		"- 8% increase in AI resolution rate\n" +
		"- 15% reduction in average handle time\n" +
		"- Better capture of upsell opportunities\n" +
		"\n" +
		"🔄 **Deployment:** Changes active in 5 minutes.",
	ActionAnalyzeBillingIssues: "🔍 **Billing Issue Deep Dive Complete**\n" +
		"\n" +
		"📊 **Root Cause Analysis:**\n" +
		"- 67% due to expired credit cards (seasonal pattern)\n" +
		"- 23% payment processor timeouts (new issue)\n" +
		"- 10% customer-initiated payment method changes\n" +
		"\n" +
		"💡 **Recommended Solutions:**\n" +
		"1. Proactive card expiry notifications (30/15/7 days)\n" +
		"2. Alternative payment method prompts\n" +
		"3. Retry logic optimization\n" +
		"\n" +
		"🎯 **Quick Win:** Implementing smart retry logic could recover 40% of failed payments.",
}

// ScriptFor returns the fixed script of one alert kind.
// Params: alert kind.
// Returns: body and a copy of action labels; false for unknown kinds.
func ScriptFor(kind domain.AlertKind) (Script, bool) {
	script, ok := alertScripts[kind]
	if !ok {
		return Script{}, false
	}
	script.Actions = append([]string(nil), script.Actions...)
	return script, true
}
