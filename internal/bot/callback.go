package bot

import "strings"

// CallbackKind identifies the action behind an inline-keyboard button.
type CallbackKind int

const (
	CbUnknown CallbackKind = iota

	CbBackMain
	CbMenuBalance
	CbMenuList
	CbMenuAccounts
	CbMenuReport
	CbMenuGoals
	CbMenuBudgets
	CbMenuCategories
	CbMenuHelp
	CbMenuClearAll
	CbConfirmClearAll

	CbAccountList
	CbAccountAdd
	CbAccountEditBalance
	CbAccountDelete
	CbSelectAccountEdit
	CbSelectAccountDelete
	CbConfirmAccountDelete
	CbAccountType

	CbReportToday
	CbReportYesterday
	CbReportWeek
	CbReportMonth
	CbReportDate
	CbReportRange
	CbReportChart

	CbGoalAdd
	CbGoalList
	CbGoalEdit
	CbGoalDelete
	CbGoalAddAmount
	CbGoalIcon
	CbGoalColor
	CbSelectGoalEdit
	CbSelectGoalDelete
	CbConfirmGoalDelete
	CbSelectGoalAdd

	CbBudgetAdd
	CbBudgetList
	CbBudgetEdit
	CbBudgetDelete
	CbBudgetReset
	CbSelectBudgetReset
	CbBudgetResetAll
	CbConfirmBudgetResetAll
	CbBudgetCategory
	CbSelectBudgetEdit
	CbSelectBudgetDelete
	CbConfirmBudgetDelete

	CbCategoryAdd
	CbCategoryList
	CbCategoryEdit
	CbCategoryDelete
	CbCategoryKeywords
	CbCategoryType
	CbCategoryIcon
	CbSelectCategoryEdit
	CbSelectCategoryDelete
	CbConfirmCategoryDelete
	CbSelectCategoryKeywords
)

// Callback is a parsed callback-query payload. Arg carries the entity id,
// type name, or date range following the token prefix.
type Callback struct {
	Kind CallbackKind
	Arg  string
}

var exactTokens = map[string]CallbackKind{
	"back_main":          CbBackMain,
	"menu_balance":       CbMenuBalance,
	"menu_list":          CbMenuList,
	"menu_accounts":      CbMenuAccounts,
	"menu_report":        CbMenuReport,
	"menu_goals":         CbMenuGoals,
	"menu_budgets":       CbMenuBudgets,
	"menu_categories":    CbMenuCategories,
	"menu_help":          CbMenuHelp,
	"menu_clear_all":     CbMenuClearAll,
	"confirm_clear_all":  CbConfirmClearAll,
	"acc_list":           CbAccountList,
	"acc_add":            CbAccountAdd,
	"acc_edit_balance":   CbAccountEditBalance,
	"acc_delete":         CbAccountDelete,
	"report_today":       CbReportToday,
	"report_yesterday":   CbReportYesterday,
	"report_week":        CbReportWeek,
	"report_month":       CbReportMonth,
	"report_date":        CbReportDate,
	"report_range":       CbReportRange,
	"goal_add":           CbGoalAdd,
	"goal_list":          CbGoalList,
	"goal_edit":          CbGoalEdit,
	"goal_delete":        CbGoalDelete,
	"goal_add_amount":    CbGoalAddAmount,
	"budget_add":         CbBudgetAdd,
	"budget_list":        CbBudgetList,
	"budget_edit":        CbBudgetEdit,
	"budget_delete":      CbBudgetDelete,
	"budget_reset":       CbBudgetReset,
	"budget_reset_all":   CbBudgetResetAll,
	"bconfirm_reset_all": CbConfirmBudgetResetAll,
	"cat_add":            CbCategoryAdd,
	"cat_list":           CbCategoryList,
	"cat_edit":           CbCategoryEdit,
	"cat_delete":         CbCategoryDelete,
	"cat_keywords":       CbCategoryKeywords,
}

var prefixTokens = []struct {
	prefix string
	kind   CallbackKind
}{
	{"sel_edit_", CbSelectAccountEdit},
	{"sel_del_", CbSelectAccountDelete},
	{"confirm_del_", CbConfirmAccountDelete},
	{"type_", CbAccountType},
	{"chart_", CbReportChart},
	{"gicon_", CbGoalIcon},
	{"gcolor_", CbGoalColor},
	{"gedit_", CbSelectGoalEdit},
	{"gdel_", CbSelectGoalDelete},
	{"gconfirm_del_", CbConfirmGoalDelete},
	{"gadd_", CbSelectGoalAdd},
	{"bcat_", CbBudgetCategory},
	{"breset_", CbSelectBudgetReset},
	{"bedit_", CbSelectBudgetEdit},
	{"bdel_", CbSelectBudgetDelete},
	{"bconfirm_del_", CbConfirmBudgetDelete},
	{"cattype_", CbCategoryType},
	{"cicon_", CbCategoryIcon},
	{"cedit_", CbSelectCategoryEdit},
	{"cdel_", CbSelectCategoryDelete},
	{"cconfirm_del_", CbConfirmCategoryDelete},
	{"ckw_", CbSelectCategoryKeywords},
}

// ParseCallback maps raw callback data to a typed Callback. Unrecognized
// data yields CbUnknown rather than an error so a stale keyboard never
// crashes a turn.
func ParseCallback(data string) Callback {
	if kind, ok := exactTokens[data]; ok {
		return Callback{Kind: kind}
	}
	for _, p := range prefixTokens {
		if strings.HasPrefix(data, p.prefix) {
			return Callback{Kind: p.kind, Arg: strings.TrimPrefix(data, p.prefix)}
		}
	}
	return Callback{Kind: CbUnknown, Arg: data}
}
