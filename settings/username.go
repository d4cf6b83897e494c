// Copyright 2025 Kaspeak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package settings

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Word lists for username generation. No word exceeds 7 characters

var adjectives = []string{
	"Able", "Agile", "Alert", "Angry", "Ashen", "Basic", "Bright", "Calm", "Chilly", "Clean",
	"Clever", "Cloudy", "Cozy", "Crazy", "Crisp", "Cruel", "Cuddly", "Cute", "Dark", "Daring",
	"Decent", "Deep", "Dense", "Dirty", "Dry", "Eager", "Early", "Earthy", "Edgy", "Fair", "Fancy",
	"Fatal", "Fierce", "Final", "Fine", "Flashy", "Fresh", "Frigid", "Frosty", "Funny", "Gentle",
	"Giant", "Gloomy", "Grace", "Grand", "Grave", "Green", "Grumpy", "Happy", "Hardy", "Harsh",
	"Hasty", "Heavy", "Hilly", "Icy", "Jolly", "Juicy", "Keen", "Kind", "Large", "Late", "Light",
	"Lively", "Lofty", "Lonely", "Loose", "Lucky", "Lush", "Mad", "Meek", "Messy", "Mild", "Misty",
	"Moody", "Narrow", "Neat", "Nifty", "Noisy", "Odd", "Pale", "Plain", "Plush", "Posh", "Proud",
	"Quick", "Quiet", "Rapid", "Rare", "Raw", "Ready", "Red", "Rich", "Rough", "Round", "Royal",
	"Sad", "Safe", "Salty", "Sane", "Sharp", "Shiny", "Short", "Shy", "Silent", "Simple", "Slim",
	"Smart", "Smooth", "Soft", "Sole", "Solid", "Sour", "Spicy", "Stale", "Stark", "Steady",
	"Stern", "Sticky", "Stormy", "Strong", "Sweet", "Swift", "Tangy", "Tasty", "Tiny", "Tough",
	"Tricky", "True", "Vague", "Vast", "Vivid", "Warm", "Weak", "Weary", "Wet", "White", "Wide",
	"Wild", "Wise", "Witty", "Wooden", "Young", "Zany", "Zealous", "Zesty", "Zippy", "Brave",
	"Cheer", "Crispy", "Dapper", "Elder", "Elegant", "Feisty", "Fuzzy", "Glassy", "Gleeful",
	"Humble", "Joyful", "Kooky", "Lovely", "Mellow", "Merry", "Mighty", "Modest", "Nasty",
	"Nimble", "Nutty", "Polite", "Quaint", "Quirky", "Rustic", "Savvy", "Sincere", "Silky",
	"Sleek", "Sloppy", "Snug", "Spiky", "Spongy", "Spry", "Stark", "Sturdy", "Subtle", "Sunny",
	"Tame", "Tense", "Timid", "Tired", "Tricky", "Unique", "Vivid", "Wacky", "Wealthy", "Wicked",
	"Wily", "Windy", "Winsome", "Witty", "Wry", "Yearly", "Yellow", "Yummy", "Zonal", "Zoned", "Rusty",
}

var nouns = []string{
	"Apple", "Angel", "Arrow", "Beach", "Bear", "Berry", "Bird", "Blade", "Bridge", "Brush",
	"Candle", "Castle", "Chair", "Cloud", "Coin", "Crown", "Dance", "Daisy", "Dawn", "Dream",
	"Eagle", "Earth", "Flame", "Flower", "Forest", "Fruit", "Ghost", "Grace", "Grass", "Green",
	"Heart", "Hill", "Honey", "Horse", "House", "Jewel", "Joy", "Lake", "Leaf", "Lion", "Light",
	"Moon", "Music", "Night", "Ocean", "Peace", "Pearl", "River", "Rose", "Ruby", "Sand", "Sky",
	"Snow", "Star", "Stone", "Storm", "Sun", "Swan", "Tree", "Truth", "Wind", "World", "Youth",
	"Zebra", "Zone", "Armor", "Army", "Artist", "Atlas", "Atom", "Badge", "Band", "Bank", "Barrel",
	"Basket", "Beast", "Bed", "Bee", "Bell", "Belt", "Bench", "Block", "Blood", "Board", "Boat",
	"Body", "Bone", "Book", "Boot", "Bottle", "Box", "Boy", "Brand", "Bread", "Brick", "Broth",
	"Brush", "Bucket", "Bullet", "Button", "Cabin", "Cable", "Cake", "Camp", "Candy", "Cap", "Car",
	"Card", "Care", "Cargo", "Cart", "Case", "Cash", "Cat", "Cave", "Cell", "Chain", "Chalk",
	"Change", "Chart", "Check", "Chef", "Chest", "Child", "Chin", "City", "Class", "Clay", "Clock",
	"Cloth", "Club", "Coat", "Comb", "Comic", "Cone", "Cook", "Copy", "Corner", "Couch", "Court",
	"Cover", "Cow", "Craft", "Crate", "Cream", "Crew", "Crime", "Cruise", "Dog", "Door", "Dot",
	"Dragon", "Duck", "Dust", "Egg", "Engine", "Farm", "Feather", "Fence", "Fire", "Fish", "Flag",
	"Flute", "Fork", "Garden", "Gate", "Guitar", "Hammer", "Hat", "Helmet", "Hook", "Horn", "Ice",
	"Ink", "Iron", "Jacket", "Jeans", "Kettle", "Knife", "Lamp", "Leg", "Lemon", "Lock", "Maple",
	"Mask", "Match", "Mouth", "Neck", "Nose", "Page", "Paint", "Park", "Pear", "Pencil", "Pillow",
	"Plane", "Plate", "Point", "Pumpkin", "Rain", "Rock", "Roof", "Root", "Salt", "Scale",
	"School", "Shoe", "Shop", "Silver", "Sink", "Skate", "Snake", "Soap", "Sock", "Spoon",
	"Spring", "Store", "Sugar", "Swim", "Table", "Tank", "Tea", "Tent", "Thread", "Thumb",
	"Ticket", "Tiger", "Toe", "Tongue", "Tool", "Top", "Train", "Trip", "Truck", "Tunnel", "Vase",
	"Violin", "Wall", "Water", "Whale", "Window", "Wolf", "Wood", "Wool", "Yard", "Yogurt", "Zip",
	"Zoo", "Ace", "Bolt", "Cape", "Dove", "Echo", "Fawn", "Gaze", "Hawk", "Ivory", "Jade",
	"Knight", "Lace", "Mint", "Nest", "Oven", "Pine", "Quest", "Rune", "Spike", "Twig", "Vine",
	"Wheat", "Xylem", "Yarn", "Zeal", "Aura", "Blaze", "Crux", "Drift", "Ember", "Fable", "Glint",
	"Haze", "Igloo", "Jolt", "Keel", "Loom", "Moss", "Nook", "Oath", "Plume", "Quill", "Ridge",
	"Sleet", "Thorn", "Urn", "Veil", "Whisk", "Yacht", "Zinc", "Kaspa",
}

var emojis = []string{
	"😀", "😂", "😎", "😍", "🥰", "😇", "😉", "😊", "😋", "😜",
	"🤪", "😝", "🤑", "🤗", "🤔", "🤨", "😐", "😑", "😶", "🙄",
	"😏", "😒", "😞", "😔", "😟", "😕", "🙁", "☹️", "😣", "😖",
	"😫", "😩", "🥺", "😭", "😢", "😤", "😠", "😡", "🤬", "🤯",
	"😳", "😱", "🥵", "🥶", "😰", "😥", "😓", "🤗", "🤭", "🧐",
	"🌚", "🐔", "🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼",
	"🐻‍❄️", "🐨", "🐯", "🦁", "🐮", "🐷", "🐸", "🐵", "🦄", "🐙",
}

// GenerateUsername derives a deterministic username from the provided seed.
// The SHA-256 hash of the seed selects an adjective, a noun and an emoji
func GenerateUsername(seed []byte) string {
	hash := sha256.Sum256(seed)
	adjIndex := binary.BigEndian.Uint64(hash[0:8]) % uint64(len(adjectives))
	nounIndex := binary.BigEndian.Uint64(hash[8:16]) % uint64(len(nouns))
	emojiIndex := uint64(hash[16]) % uint64(len(emojis))
	return fmt.Sprintf(
		"%s%s %s",
		adjectives[adjIndex],
		nouns[nounIndex],
		emojis[emojiIndex],
	)
}
