package rules

// defaultRules is the built-in rule set, checked in order. Grouping and
// ordering matter: more specific merchants sit above generic catch-alls so
// first-match-wins resolves the way users expect.
var defaultRules = []struct {
	pattern  string
	category string
	parent   string
}{
	// Food & Dining
	{`(?i)\b(grocery|supermarket|whole foods|trader joe|kroger|safeway|publix|wegmans|aldi|food lion|stop.?shop)\b`, "Groceries", "Food & Dining"},
	{`(?i)\b(restaurant|cafe|diner|bistro|steakhouse|pizzeria|pizza|mcdonald|burger|kfc|taco|chipotle|subway|domino)\b`, "Restaurants", "Food & Dining"},
	{`(?i)\b(starbucks|coffee|espresso|cappuccino|latte|dunkin|peet.?s|tim.?hortons)\b`, "Coffee Shops", "Food & Dining"},
	{`(?i)\b(doordash|grubhub|ubereats|uber.?eats|postmates|seamless|instacart)\b`, "Food Delivery", "Food & Dining"},
	{`(?i)\b(fast.?food|drive.?thru|takeout|delivery)\b`, "Fast Food", "Food & Dining"},
	{`(?i)\b(bar|pub|brewery|winery|liquor|taproom)\b`, "Alcohol & Bars", "Food & Dining"},
	{`(?i)\b(bakery|deli|donut|patisserie)\b`, "Restaurants", "Food & Dining"},

	// Transportation
	{`(?i)\b(gas|petrol|fuel|shell|exxon|bp|chevron|mobil|arco|76|valero|sunoco|citgo)\b`, "Gas & Fuel", "Transportation"},
	{`(?i)\b(uber|lyft|taxi|cab|ride.?share|rideshare)\b`, "Rideshare", "Transportation"},
	{`(?i)\b(parking|parking.?meter|garage|valet)\b`, "Parking", "Transportation"},
	{`(?i)\b(metro|subway|bus|transit|public.?transport|train|amtrak)\b`, "Public Transit", "Transportation"},
	{`(?i)\b(car.?wash|auto.?wash|detailing)\b`, "Car Maintenance", "Transportation"},
	{`(?i)\b(mechanic|auto.?repair|jiffy.?lube|oil.?change|autozone|o.?reilly|pep.?boys)\b`, "Car Maintenance", "Transportation"},
	{`(?i)\b(toll|ez.?pass|fastrak)\b`, "Tolls", "Transportation"},

	// Travel
	{`(?i)\b(airline|airways|delta.?air|united.?air|american.?air|southwest|jetblue|alaska.?air)\b`, "Air Travel", "Travel"},
	{`(?i)\b(hotel|motel|marriott|hilton|hyatt|airbnb|booking.?com|expedia)\b`, "Lodging", "Travel"},
	{`(?i)\b(rental.?car|car.?rental|hertz|avis|enterprise.?rent|budget.?rent)\b`, "Car Rental", "Travel"},

	// Shopping
	{`(?i)\b(amazon|target|walmart|costco|sam.?club|best.?buy|home.?depot|lowes)\b`, "General Shopping", "Shopping"},
	{`(?i)\b(clothing|apparel|nike|adidas|zara|h.?m|forever.?21|macy.?s|nordstrom)\b`, "Clothing", "Shopping"},
	{`(?i)\b(pharmacy|drugstore|cvs|walgreens|rite.?aid)\b`, "Pharmacy", "Shopping"},
	{`(?i)\b(electronics|apple.?store|micro.?center|newegg)\b`, "Electronics", "Shopping"},
	{`(?i)\b(bookstore|barnes.?noble|kindle|audiobook)\b`, "Books", "Shopping"},
	{`(?i)\b(ikea|wayfair|furniture|overstock)\b`, "Home Goods", "Shopping"},
	{`(?i)\b(petco|petsmart|chewy|pet.?store|pet.?supplies)\b`, "Pet Supplies", "Shopping"},
	{`(?i)\b(etsy|ebay|aliexpress|shein|temu)\b`, "Online Shopping", "Shopping"},

	// Bills & Utilities
	{`(?i)\b(electric|power|energy|utility|electricity)\b`, "Electric", "Bills & Utilities"},
	{`(?i)\b(water|sewer|waterworks)\b`, "Water", "Bills & Utilities"},
	{`(?i)\b(gas.?bill|natural.?gas)\b`, "Gas Utility", "Bills & Utilities"},
	{`(?i)\b(internet|isp|comcast|verizon|att|xfinity|spectrum)\b`, "Internet", "Bills & Utilities"},
	{`(?i)\b(phone|mobile|cellular|t.?mobile|sprint)\b`, "Phone", "Bills & Utilities"},
	{`(?i)\b(cable|tv|television|directv|dish)\b`, "Cable/TV", "Bills & Utilities"},
	{`(?i)\b(trash|garbage|waste.?management|recycling)\b`, "Trash & Recycling", "Bills & Utilities"},

	// Home
	{`(?i)\b(rent|landlord|property.?management)\b`, "Rent", "Home"},
	{`(?i)\b(mortgage|escrow)\b`, "Mortgage", "Home"},
	{`(?i)\b(hoa|homeowners.?association)\b`, "HOA Fees", "Home"},
	{`(?i)\b(plumber|electrician|handyman|hvac|lawn.?care|pest.?control)\b`, "Home Maintenance", "Home"},

	// Entertainment
	{`(?i)\b(netflix|hulu|disney.?plus|prime|spotify|apple.?music|youtube.?premium)\b`, "Streaming Services", "Entertainment"},
	{`(?i)\b(hbo|paramount.?plus|peacock|audible|twitch)\b`, "Streaming Services", "Entertainment"},
	{`(?i)\b(movie|cinema|theater|amc|regal|fandango)\b`, "Movies", "Entertainment"},
	{`(?i)\b(concert|ticketmaster|stubhub|event)\b`, "Events", "Entertainment"},
	{`(?i)\b(game|gaming|steam|playstation|xbox|nintendo)\b`, "Gaming", "Entertainment"},
	{`(?i)\b(museum|zoo|aquarium|theme.?park|six.?flags)\b`, "Attractions", "Entertainment"},

	// Health & Fitness
	{`(?i)\b(doctor|physician|medical|clinic|hospital|urgent.?care)\b`, "Medical", "Health & Fitness"},
	{`(?i)\b(dentist|dental|orthodontist)\b`, "Dental", "Health & Fitness"},
	{`(?i)\b(gym|fitness|yoga|pilates|personal.?trainer)\b`, "Fitness", "Health & Fitness"},
	{`(?i)\b(vision|optometrist|eye.?care|lenscrafters)\b`, "Vision", "Health & Fitness"},
	{`(?i)\b(therapy|counseling|psychiatry|psychiatrist)\b`, "Mental Health", "Health & Fitness"},
	{`(?i)\b(vet|veterinary|veterinarian|animal.?hospital)\b`, "Veterinary", "Health & Fitness"},
	{`(?i)\b(prescription|medication)\b`, "Pharmacy", "Health & Fitness"},

	// Personal Care
	{`(?i)\b(salon|barber|haircut|spa|manicure|pedicure)\b`, "Personal Care", "Personal Care"},

	// Income
	{`(?i)\b(salary|payroll|paycheck|wages|income|direct.?deposit)\b`, "Salary", "Income"},
	{`(?i)\b(bonus|commission|freelance|contract)\b`, "Other Income", "Income"},
	{`(?i)\b(refund|reimbursement|rebate)\b`, "Refunds", "Income"},
	{`(?i)\b(interest.?(paid|payment|earned)|dividend)\b`, "Interest & Dividends", "Income"},

	// Transfers
	{`(?i)\b(transfer|savings|investment|401k|ira)\b`, "Transfers", "Transfers"},
	{`(?i)\b(venmo|zelle|paypal|cash.?app)\b`, "Transfers", "Transfers"},

	// Subscriptions
	{`(?i)\b(subscription|recurring|monthly.?fee|annual.?fee)\b`, "Subscriptions", "Subscriptions"},

	// Education
	{`(?i)\b(tuition|school|university|college|education|student.?loan)\b`, "Education", "Education"},

	// Insurance
	{`(?i)\b(insurance|premium|geico|state.?farm|allstate|progressive)\b`, "Insurance", "Insurance"},

	// Gifts & Donations
	{`(?i)\b(donation|charity|gofundme|red.?cross|goodwill)\b`, "Charity", "Gifts & Donations"},

	// Taxes
	{`(?i)\b(irs|tax.?payment|turbotax|h.?r.?block)\b`, "Taxes", "Taxes"},

	// Banking
	{`(?i)\b(fee|atm|overdraft|service.?charge|bank.?fee)\b`, "Banking Fees", "Banking"},
}
