package harvest

import "sort"

// =============================================================================
// STREAM CATALOG
// Every Harvest dataset this connector extracts, as pure configuration.
// Plain streams need only a name; the optional specs add incremental
// filtering, parent/child fan-out, or a report date window.
// =============================================================================

// StreamDefinitions contains all Harvest stream definitions, keyed by
// stream name.
var StreamDefinitions = map[string]StreamDescriptor{
	"contacts": {
		Name:        "contacts",
		DocsURL:     "https://help.getharvest.com/api-v2/clients-api/clients/contacts/",
		Incremental: &IncrementalSpec{},
	},
	"clients": {
		Name:        "clients",
		DocsURL:     "https://help.getharvest.com/api-v2/clients-api/clients/clients/",
		Incremental: &IncrementalSpec{},
	},
	"company": {
		// Singleton resource: the body is the record and carries no id.
		Name:          "company",
		DocsURL:       "https://help.getharvest.com/api-v2/company-api/company/company/",
		WholeResponse: true,
		Keyless:       true,
	},
	"invoices": {
		Name:        "invoices",
		DocsURL:     "https://help.getharvest.com/api-v2/invoices-api/invoices/invoices/",
		Incremental: &IncrementalSpec{},
	},
	"invoice_messages": {
		Name:        "invoice_messages",
		DocsURL:     "https://help.getharvest.com/api-v2/invoices-api/invoices/invoice-messages/",
		Incremental: &IncrementalSpec{},
		Child:       &ChildSpec{Parent: "invoices", PathTemplate: "invoices/{parent_id}/messages"},
	},
	"invoice_payments": {
		Name:        "invoice_payments",
		DocsURL:     "https://help.getharvest.com/api-v2/invoices-api/invoices/invoice-payments/",
		Incremental: &IncrementalSpec{},
		Child:       &ChildSpec{Parent: "invoices", PathTemplate: "invoices/{parent_id}/payments"},
	},
	"invoice_item_categories": {
		Name:        "invoice_item_categories",
		DocsURL:     "https://help.getharvest.com/api-v2/invoices-api/invoices/invoice-item-categories/",
		Incremental: &IncrementalSpec{},
	},
	"estimates": {
		Name:        "estimates",
		DocsURL:     "https://help.getharvest.com/api-v2/estimates-api/estimates/estimates/",
		Incremental: &IncrementalSpec{},
	},
	"estimate_messages": {
		Name:        "estimate_messages",
		DocsURL:     "https://help.getharvest.com/api-v2/estimates-api/estimates/estimate-messages/",
		Incremental: &IncrementalSpec{},
		Child:       &ChildSpec{Parent: "estimates", PathTemplate: "estimates/{parent_id}/messages"},
	},
	"estimate_item_categories": {
		Name:        "estimate_item_categories",
		DocsURL:     "https://help.getharvest.com/api-v2/estimates-api/estimates/estimate-item-categories/",
		Incremental: &IncrementalSpec{},
	},
	"expenses": {
		Name:        "expenses",
		DocsURL:     "https://help.getharvest.com/api-v2/expenses-api/expenses/expenses/",
		Incremental: &IncrementalSpec{},
	},
	"expense_categories": {
		Name:        "expense_categories",
		DocsURL:     "https://help.getharvest.com/api-v2/expenses-api/expenses/expense-categories/",
		Incremental: &IncrementalSpec{},
	},
	"tasks": {
		Name:        "tasks",
		DocsURL:     "https://help.getharvest.com/api-v2/tasks-api/tasks/tasks/",
		Incremental: &IncrementalSpec{},
	},
	"time_entries": {
		Name:        "time_entries",
		DocsURL:     "https://help.getharvest.com/api-v2/timesheets-api/timesheets/time-entries/",
		Incremental: &IncrementalSpec{},
	},
	"user_assignments": {
		Name:        "user_assignments",
		DocsURL:     "https://help.getharvest.com/api-v2/projects-api/projects/user-assignments/",
		Incremental: &IncrementalSpec{},
	},
	"task_assignments": {
		Name:        "task_assignments",
		DocsURL:     "https://help.getharvest.com/api-v2/projects-api/projects/task-assignments/",
		Incremental: &IncrementalSpec{},
	},
	"projects": {
		Name:        "projects",
		DocsURL:     "https://help.getharvest.com/api-v2/projects-api/projects/projects/",
		Incremental: &IncrementalSpec{},
	},
	"roles": {
		Name:        "roles",
		DocsURL:     "https://help.getharvest.com/api-v2/roles-api/roles/roles/",
		Incremental: &IncrementalSpec{},
	},
	"users": {
		Name:        "users",
		DocsURL:     "https://help.getharvest.com/api-v2/users-api/users/users/",
		Incremental: &IncrementalSpec{},
	},
	"billable_rates": {
		Name:    "billable_rates",
		DocsURL: "https://help.getharvest.com/api-v2/users-api/users/billable-rates/",
		Child:   &ChildSpec{Parent: "users", PathTemplate: "users/{parent_id}/billable_rates"},
	},
	"cost_rates": {
		Name:    "cost_rates",
		DocsURL: "https://help.getharvest.com/api-v2/users-api/users/cost-rates/",
		Child:   &ChildSpec{Parent: "users", PathTemplate: "users/{parent_id}/cost_rates"},
	},
	"project_assignments": {
		Name:        "project_assignments",
		DocsURL:     "https://help.getharvest.com/api-v2/users-api/users/project-assignments/",
		Incremental: &IncrementalSpec{},
		Child:       &ChildSpec{Parent: "users", PathTemplate: "users/{parent_id}/project_assignments"},
	},
	"expenses_clients": {
		Name:    "expenses_clients",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/expense-reports/",
		Report:  &ReportSpec{PathSuffix: "expenses/clients"},
	},
	"expenses_projects": {
		Name:    "expenses_projects",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/expense-reports/",
		Report:  &ReportSpec{PathSuffix: "expenses/projects"},
	},
	"expenses_categories": {
		Name:    "expenses_categories",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/expense-reports/",
		Report:  &ReportSpec{PathSuffix: "expenses/categories"},
	},
	"expenses_team": {
		Name:    "expenses_team",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/expense-reports/",
		Report:  &ReportSpec{PathSuffix: "expenses/team"},
	},
	"uninvoiced": {
		Name:    "uninvoiced",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/uninvoiced-report/",
		Report:  &ReportSpec{PathSuffix: "uninvoiced"},
	},
	"time_clients": {
		Name:    "time_clients",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/time-reports/",
		Report:  &ReportSpec{PathSuffix: "time/clients"},
	},
	"time_projects": {
		Name:    "time_projects",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/time-reports/",
		Report:  &ReportSpec{PathSuffix: "time/projects"},
	},
	"time_tasks": {
		Name:    "time_tasks",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/time-reports/",
		Report:  &ReportSpec{PathSuffix: "time/tasks"},
	},
	"time_team": {
		Name:    "time_team",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/time-reports/",
		Report:  &ReportSpec{PathSuffix: "time/team"},
	},
	"project_budget": {
		Name:    "project_budget",
		DocsURL: "https://help.getharvest.com/api-v2/reports-api/reports/project-budget-report/",
		Report:  &ReportSpec{PathSuffix: "project_budget"},
	},
}

// StreamNames returns all catalog stream names in sorted order.
func StreamNames() []string {
	names := make([]string, 0, len(StreamDefinitions))
	for name := range StreamDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
