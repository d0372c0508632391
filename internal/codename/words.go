package codename

var adjectives = []string{
	"Amber", "Arctic", "Ashen", "Azure", "Bitter", "Black", "Blazing", "Bold",
	"Brass", "Bright", "Broken", "Burning", "Calm", "Cobalt", "Cold", "Copper",
	"Crimson", "Crystal", "Dark", "Distant", "Dusty", "Electric", "Emerald", "Fallen",
	"Feral", "Frozen", "Gilded", "Golden", "Granite", "Grey", "Hidden", "Hollow",
	"Iron", "Ivory", "Jade", "Lone", "Lucky", "Lunar", "Marble", "Midnight",
	"Misty", "Molten", "Noble", "Obsidian", "Onyx", "Pale", "Quiet", "Rapid",
	"Restless", "Rogue", "Rusty", "Scarlet", "Shadow", "Silent", "Silver", "Solar",
	"Steel", "Stone", "Swift", "Thunder", "Velvet", "Violet", "Wild", "Winter",
}

var nouns = []string{
	"Anchor", "Badger", "Beacon", "Bison", "Cobra", "Comet", "Condor", "Coyote",
	"Crane", "Dagger", "Dragon", "Eagle", "Ember", "Falcon", "Fox", "Gazelle",
	"Glacier", "Griffin", "Harbor", "Hawk", "Heron", "Hornet", "Jackal", "Jaguar",
	"Kestrel", "Lantern", "Leopard", "Lynx", "Mantis", "Meteor", "Mongoose", "Moose",
	"Nomad", "Oracle", "Osprey", "Otter", "Panther", "Pelican", "Phoenix", "Pike",
	"Prism", "Python", "Raven", "Reef", "Ridge", "Rook", "Sabre", "Sentinel",
	"Serpent", "Sparrow", "Spectre", "Sphinx", "Stallion", "Summit", "Talon", "Tempest",
	"Tiger", "Titan", "Viper", "Vortex", "Walrus", "Warden", "Wolf", "Wyvern",
}
