package loader

import "strconv"

// sampleRow is one line of the demonstration dataset. Dates are day-first.
type sampleRow struct {
	date, item, description, source, customer string
	qty                                       int64
	amount                                    string
}

var sampleRows = []sampleRow{
	{"1-3-2022", "BCH-12201", "Gouda Portion 200g", "10000", "Online Subscription", -1, "301.72"},
	{"1-4-2022", "BCH-16301", "Paneer 250g", "10000", "Online Subscription", -1, "344.83"},
	{"1-5-2022", "BDY-20101", "Unsalted Butter 500g", "10000", "Online Subscription", -1, "603.45"},
	{"1-6-2022", "BOG-50101", "Organic Whole Milk - 420mL", "10000", "Online Subscription", -4, "700"},
	{"1-8-2022", "BOG-50227", "Vegan Berry Yoghurt 150ML", "10000", "Online Subscription", -1, "172.41"},
	{"15-9-2022", "BOG-50228", "Vegan Plain Natural Sugar Yoghurt 150ML", "10000", "Online Subscription", -1, "172.41"},
	{"1-10-2022", "BOG-50229", "Vegan Passion Fruit Yoghurt 150ML", "10000", "Online Subscription", -1, "172.41"},
	{"1-11-2022", "DIC-30161", "Delia's Coffee bean Ice Cream 500mL", "10000", "Online Subscription", -1, "603.45"},
	{"1-12-2022", "DIC-40101", "Delia's Customer Specific Ice-cream 500ml", "10000", "Online Subscription", -1, "603.45"},
	{"1-1-2023", "BCH-10301", "Camembert 200g", "10000", "Online Subscription", -1, "448.28"},
	{"1-2-2023", "BCH-14101", "Mozzarella 200g", "10000", "Online Subscription", -2, "620.68"},
	{"1-3-2023", "BCH-14161", "String Cheese 180g", "10000", "Online Subscription", -2, "620.68"},
	{"1-4-2023", "BCH-16201", "Halloumi 250g", "10000", "Online Subscription", -2, "844.82"},
	{"1-5-2023", "BDY-20101", "Unsalted Butter 500g", "10000", "Online Subscription", -1, "603.45"},
	{"1-6-2023", "BDY-20201", "Sour Cream 200g", "10000", "Online Subscription", -1, "431.03"},
	{"1-7-2023", "BOI-60000", "Browns Other sale Items", "10000", "Online Subscription", -1, "344.83"},
	{"1-8-2023", "BOI-60000", "Browns Other sale Items", "10000", "Online Subscription", -1, "431.03"},
	{"1-9-2023", "BRC-12505", "Grated Parmesan 100g", "10000", "Online Subscription", -2, "775.86"},
	{"1-10-2023", "DIC-30101", "Delia's Vanilla Bean Ice Cream 500mL", "10000", "Online Subscription", -1, "603.45"},
	{"1-11-2023", "DIC-40101", "Delia's Customer Specific Ice-cream 500ml", "10000", "Online Subscription", -1, "603.45"},
	{"1-12-2023", "BOG-50101", "Organic Whole Milk - 420mL", "10000", "Online Subscription", -4, "700"},
	{"1-1-2024", "BFC-51101", "Margarita Pizza", "10000", "Online Subscription", -1, "775.86"},
	{"1-2-2024", "BFC-51111", "Spinach & Pesto Pizza", "10000", "Online Subscription", -1, "775.86"},
	{"1-3-2024", "BCH-12201", "Gouda Portion 200g", "10000", "Online Subscription", -1, "301.72"},
	{"1-4-2024", "BCH-16301", "Paneer 250g", "10000", "Online Subscription", -1, "344.83"},
	{"1-5-2024", "BDY-20101", "Unsalted Butter 500g", "10000", "Online Subscription", -1, "603.45"},
	{"1-6-2024", "BOG-50101", "Organic Whole Milk - 420mL", "10000", "Online Subscription", -4, "700"},
	{"1-7-2024", "BOG-50227", "Vegan Berry Yoghurt 150ML", "10000", "Online Subscription", -1, "172.41"},
	{"1-8-2024", "BOG-50228", "Vegan Plain Natural Sugar Yoghurt 150ML", "10000", "Online Subscription", -1, "172.41"},
	{"1-9-2024", "BOG-50229", "Vegan Passion Fruit Yoghurt 150ML", "10000", "Online Subscription", -1, "172.41"},
	{"1-10-2024", "DIC-30161", "Delia's Coffee bean Ice Cream 500mL", "10000", "Online Subscription", -1, "603.45"},
	{"1-11-2024", "DIC-40101", "Delia's Customer Specific Ice-cream 500ml", "10000", "Online Subscription", -1, "603.45"},
	{"1-12-2024", "BCH-10301", "Camembert 200g", "10000", "Online Subscription", -1, "448.28"},
	{"1-1-2025", "BCH-14101", "Mozzarella 200g", "10000", "Online Subscription", -2, "620.68"},
	{"1-2-2025", "BCH-14161", "String Cheese 180g", "10000", "Online Subscription", -2, "620.68"},
	{"1-3-2025", "BCH-16201", "Halloumi 250g", "10000", "Online Subscription", -2, "844.82"},
}

// SampleTable returns the demonstration dataset as a header plus rows, the
// same shape ReadCSV produces.
func SampleTable() [][]string {
	table := make([][]string, 0, len(sampleRows)+1)
	table = append(table, append([]string(nil), RequiredColumns...))
	for _, r := range sampleRows {
		table = append(table, []string{
			r.date, r.item, r.description, r.source, r.customer,
			strconv.FormatInt(r.qty, 10), r.amount,
		})
	}
	return table
}
